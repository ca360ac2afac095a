package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPrefix prefix of user field columns in highload block tables
const DefaultPrefix = "uf_"

// Namer namer interface
type Namer interface {
	NormalizeKey(key string) string
	DenormalizeKey(key string) string
	ForeignKey(name string) string
	RelationKey(name string) string
}

// NamingStrategy maps logical attribute names to physical column names and back
type NamingStrategy struct {
	Prefix        string
	WithoutPrefix []string
}

// WithExempt returns a copy of the strategy that never prefixes the given keys
func (ns NamingStrategy) WithExempt(keys ...string) NamingStrategy {
	exempt := make([]string, 0, len(ns.WithoutPrefix)+len(keys))
	exempt = append(exempt, ns.WithoutPrefix...)
	for _, key := range keys {
		if key != "" && !ns.exempt(lower(key)) {
			exempt = append(exempt, key)
		}
	}
	ns.WithoutPrefix = exempt
	return ns
}

// NormalizeKey convert logical key to column name, eg: title => UF_TITLE
func (ns NamingStrategy) NormalizeKey(key string) string {
	key = lower(key)
	if !ns.exempt(key) && !strings.HasPrefix(key, ns.prefix()) {
		key = ns.prefix() + key
	}
	return upper(key)
}

// NormalizeKeys normalize every key
func (ns NamingStrategy) NormalizeKeys(keys []string) []string {
	results := make([]string, len(keys))
	for idx, key := range keys {
		results[idx] = ns.NormalizeKey(key)
	}
	return results
}

// DenormalizeKey convert column name to logical key, eg: UF_TITLE => title
func (ns NamingStrategy) DenormalizeKey(key string) string {
	key = lower(key)
	if !ns.exempt(key) && strings.HasPrefix(key, ns.prefix()) {
		key = strings.TrimPrefix(key, ns.prefix())
	}
	return key
}

// ForeignKey logical foreign key for an entity name, eg: Authors => author_id
func (ns NamingStrategy) ForeignKey(name string) string {
	return inflection.Singular(toDBName(name)) + "_id"
}

// RelationKey key used for a relation when serializing, eg: lastComments => last_comments
func (ns NamingStrategy) RelationKey(name string) string {
	return toDBName(name)
}

func (ns NamingStrategy) prefix() string {
	if ns.Prefix == "" {
		return DefaultPrefix
	}
	return lower(ns.Prefix)
}

func (ns NamingStrategy) exempt(key string) bool {
	for _, k := range ns.WithoutPrefix {
		if lower(k) == key {
			return true
		}
	}
	return false
}

func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

var (
	smap sync.Map
	// https://github.com/golang/lint/blob/master/lint.go#L770
	commonInitialisms         = []string{"API", "ASCII", "CPU", "CSS", "DNS", "EOF", "GUID", "HTML", "HTTP", "HTTPS", "ID", "IP", "JSON", "LHS", "QPS", "RAM", "RHS", "RPC", "SLA", "SMTP", "SSH", "TLS", "TTL", "UID", "UI", "UUID", "URI", "URL", "UTF8", "VM", "XML", "XSRF", "XSS"}
	commonInitialismsReplacer *strings.Replacer
)

func init() {
	title := cases.Title(language.Und)
	var commonInitialismsForReplacer []string
	for _, initialism := range commonInitialisms {
		commonInitialismsForReplacer = append(commonInitialismsForReplacer, initialism, title.String(initialism))
	}
	commonInitialismsReplacer = strings.NewReplacer(commonInitialismsForReplacer...)
}

func toDBName(name string) string {
	if name == "" {
		return ""
	} else if v, ok := smap.Load(name); ok {
		return fmt.Sprint(v)
	}

	var (
		value                          = commonInitialismsReplacer.Replace(name)
		buf                            strings.Builder
		lastCase, nextCase, nextNumber bool // upper case == true
		curCase                        = value[0] <= 'Z' && value[0] >= 'A'
	)

	for i, v := range value[:len(value)-1] {
		nextCase = value[i+1] <= 'Z' && value[i+1] >= 'A'
		nextNumber = value[i+1] >= '0' && value[i+1] <= '9'

		if curCase {
			if lastCase && (nextCase || nextNumber) {
				buf.WriteRune(v + 32)
			} else {
				if i > 0 && value[i-1] != '_' && value[i+1] != '_' {
					buf.WriteByte('_')
				}
				buf.WriteRune(v + 32)
			}
		} else {
			buf.WriteRune(v)
		}

		lastCase = curCase
		curCase = nextCase
	}

	if curCase {
		if !lastCase && len(value) > 1 {
			buf.WriteByte('_')
		}
		buf.WriteByte(value[len(value)-1] + 32)
	} else {
		buf.WriteByte(value[len(value)-1])
	}

	smap.Store(name, buf.String())
	return buf.String()
}

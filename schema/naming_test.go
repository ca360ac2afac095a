package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToDBName(t *testing.T) {
	var maps = map[string]string{
		"":                          "",
		"x":                         "x",
		"X":                         "x",
		"userRestrictions":          "user_restrictions",
		"ThisIsATest":               "this_is_a_test",
		"PFAndESI":                  "pf_and_esi",
		"AbcAndJkl":                 "abc_and_jkl",
		"EmployeeID":                "employee_id",
		"SKU_ID":                    "sku_id",
		"FieldX":                    "field_x",
		"HTTPAndSMTP":               "http_and_smtp",
		"HTTPServerHandlerForURLID": "http_server_handler_for_url_id",
		"UUID":                      "uuid",
		"HTTPURL":                   "http_url",
		"HTTP_URL":                  "http_url",
		"SHA256Hash":                "sha256_hash",
		"SHA256HASH":                "sha256_hash",
	}

	for key, value := range maps {
		if toDBName(key) != value {
			t.Errorf("%v toName should equal %v, but got %v", key, value, toDBName(key))
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	ns := NamingStrategy{WithoutPrefix: []string{"ID", "xml_id"}}

	cases := []struct {
		key  string
		want string
	}{
		{"title", "UF_TITLE"},
		{"Title", "UF_TITLE"},
		{"uf_title", "UF_TITLE"},
		{"UF_TITLE", "UF_TITLE"},
		{"id", "ID"},
		{"XML_ID", "XML_ID"},
		{"created_at", "UF_CREATED_AT"},
	}

	for _, c := range cases {
		t.Run(c.key, func(t *testing.T) {
			assert.Equal(t, c.want, ns.NormalizeKey(c.key))
		})
	}

	assert.Equal(t, []string{"UF_A", "ID"}, ns.NormalizeKeys([]string{"a", "id"}))
}

func TestNormalizeKeyCustomPrefix(t *testing.T) {
	ns := NamingStrategy{Prefix: "PR_"}
	assert.Equal(t, "PR_NAME", ns.NormalizeKey("name"))
	assert.Equal(t, "name", ns.DenormalizeKey("PR_NAME"))
}

func TestDenormalizeKey(t *testing.T) {
	ns := NamingStrategy{}.WithExempt("id")

	assert.Equal(t, "title", ns.DenormalizeKey("UF_TITLE"))
	assert.Equal(t, "id", ns.DenormalizeKey("ID"))
	assert.Equal(t, "name", ns.DenormalizeKey("NAME"))
}

func TestNormalizeKeyRoundTrip(t *testing.T) {
	ns := NamingStrategy{WithoutPrefix: []string{"code"}}.WithExempt("id")

	for _, key := range []string{"title", "author_id", "created_at", "x"} {
		normalized := ns.NormalizeKey(key)
		assert.Equal(t, key, ns.DenormalizeKey(normalized))
		assert.Equal(t, normalized, ns.NormalizeKey(normalized), "normalize should be idempotent")
	}
}

func TestWithExempt(t *testing.T) {
	ns := NamingStrategy{WithoutPrefix: []string{"id"}}
	exempt := ns.WithExempt("ID", "code", "")

	assert.Equal(t, []string{"id"}, ns.WithoutPrefix)
	assert.Equal(t, []string{"id", "code"}, exempt.WithoutPrefix)
}

func TestForeignKey(t *testing.T) {
	ns := NamingStrategy{}
	assert.Equal(t, "author_id", ns.ForeignKey("Author"))
	assert.Equal(t, "author_id", ns.ForeignKey("Authors"))
	assert.Equal(t, "blog_post_id", ns.ForeignKey("BlogPost"))
	assert.Equal(t, "last_comments", ns.RelationKey("lastComments"))
}

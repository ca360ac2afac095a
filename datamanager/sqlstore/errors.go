package sqlstore

import (
	"encoding/json"
	"fmt"

	"github.com/hlblock/hlorm/datamanager"
)

// ErrTranslator translates driver errors into store errors
type ErrTranslator interface {
	Translate(err error) error
}

// ErrDuplicatedKey write refused by a unique constraint
type ErrDuplicatedKey struct {
	Code    interface{}
	Message string
}

func (e ErrDuplicatedKey) Error() string {
	return fmt.Sprintf("duplicated key not allowed, code: %v, message: %s", e.Code, e.Message)
}

// driverErr exported fields of the mysql, postgres, sqlite3 and mssql driver errors
type driverErr struct {
	Number       int         `json:"Number"`
	Code         interface{} `json:"Code"`
	ExtendedCode int         `json:"ExtendedCode"`
	Message      string      `json:"Message"`
}

type codeTranslator struct {
	match func(e driverErr) (interface{}, bool)
}

func (t codeTranslator) Translate(err error) error {
	parsedErr, marshalErr := json.Marshal(err)
	if marshalErr != nil {
		return err
	}

	var e driverErr
	if unmarshalErr := json.Unmarshal(parsedErr, &e); unmarshalErr != nil {
		return err
	}

	if code, ok := t.match(e); ok {
		return ErrDuplicatedKey{Code: code, Message: e.Message}
	}
	return err
}

var errTranslators = map[string]ErrTranslator{
	"mysql": codeTranslator{match: func(e driverErr) (interface{}, bool) {
		return e.Number, e.Number == 1062
	}},
	"postgres": codeTranslator{match: func(e driverErr) (interface{}, bool) {
		return e.Code, e.Code == "23505"
	}},
	"sqlite3": codeTranslator{match: func(e driverErr) (interface{}, bool) {
		return e.ExtendedCode, e.ExtendedCode == 2067 || e.ExtendedCode == 1555
	}},
	"mssql": codeTranslator{match: func(e driverErr) (interface{}, bool) {
		return e.Number, e.Number == 2627 || e.Number == 2601
	}},
}

// TranslateError translate err with the translator of the dialect, unknown dialects keep err
func TranslateError(dialect Dialect, err error) error {
	if err == nil || dialect == nil {
		return err
	}
	if translator, ok := errTranslators[dialect.GetName()]; ok {
		return translator.Translate(err)
	}
	return err
}

func (s *Store) failure(err error) *datamanager.Result {
	return datamanager.FailureFromError(TranslateError(s.Dialect, err))
}

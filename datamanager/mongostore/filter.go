package mongostore

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hlblock/hlorm/clause"
	"github.com/hlblock/hlorm/utils"
)

// IDField document field holding the primary key
const IDField = "_id"

// BuildFilter translate filter into a query document, top level entries are joined with $and
func (s *Store) BuildFilter(filter clause.Filter) bson.M {
	if filter.Len() == 0 {
		return bson.M{}
	}
	if filter.Len() == 1 {
		return s.buildExpr(filter.Exprs[0])
	}

	docs := make([]bson.M, 0, filter.Len())
	for _, expr := range filter.Exprs {
		docs = append(docs, s.buildExpr(expr))
	}
	return bson.M{"$and": docs}
}

func (s *Store) buildExpr(expr clause.Expression) bson.M {
	switch v := expr.(type) {
	case clause.Cond:
		return s.buildCond(v)
	case clause.Group:
		docs := make([]bson.M, 0, len(v.Filters))
		for _, sub := range v.Filters {
			docs = append(docs, s.BuildFilter(sub))
		}
		if len(docs) == 0 {
			return bson.M{}
		}
		if v.Logic == clause.OR {
			return bson.M{"$or": docs}
		}
		return bson.M{"$and": docs}
	}
	return bson.M{}
}

func (s *Store) buildCond(cond clause.Cond) bson.M {
	field := s.field(cond.Column)
	if values, ok := listValue(cond.Value); ok {
		if field == IDField {
			ids := make([]interface{}, len(values))
			for idx, v := range values {
				ids[idx] = documentID(v)
			}
			values = ids
		}
		switch cond.Op {
		case clause.Eq:
			return bson.M{field: bson.M{"$in": values}}
		case clause.Not, clause.NotIdentical:
			return bson.M{field: bson.M{"$nin": values}}
		}
	}

	value := cond.Value
	if field == IDField {
		value = documentID(value)
	}
	switch cond.Op {
	case clause.Eq:
		return bson.M{field: bson.M{"$eq": value}}
	case clause.Not, clause.NotIdentical:
		return bson.M{field: bson.M{"$ne": value}}
	case clause.Gt:
		return bson.M{field: bson.M{"$gt": value}}
	case clause.Gte:
		return bson.M{field: bson.M{"$gte": value}}
	case clause.Lt:
		return bson.M{field: bson.M{"$lt": value}}
	case clause.Lte:
		return bson.M{field: bson.M{"$lte": value}}
	case clause.Like:
		return bson.M{field: primitive.Regex{Pattern: likePattern(value)}}
	case clause.StartsLike:
		return bson.M{field: primitive.Regex{Pattern: "^" + likePattern(value)}}
	case clause.EndsLike:
		return bson.M{field: primitive.Regex{Pattern: likePattern(value) + "$"}}
	}
	return bson.M{}
}

// field document field of a column
func (s *Store) field(column string) string {
	if column == s.PrimaryKey {
		return IDField
	}
	return column
}

// documentID object ids travel as hex strings outside of the store
func documentID(value interface{}) interface{} {
	if v, ok := value.(string); ok {
		if id, err := primitive.ObjectIDFromHex(v); err == nil {
			return id
		}
	}
	return value
}

func likePattern(value interface{}) string {
	return regexp.QuoteMeta(utils.ToStringKey(value))
}

func listValue(value interface{}) ([]interface{}, bool) {
	switch value.(type) {
	case nil, string, []byte, primitive.ObjectID:
		return nil, false
	}

	values := utils.ToSlice(value)
	if len(values) == 1 && utils.AssertEqual(values[0], value) {
		return nil, false
	}
	return values, true
}

// explain render a document for traces
func explain(doc interface{}) string {
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return fmt.Sprintf("%v", doc)
	}
	return string(data)
}

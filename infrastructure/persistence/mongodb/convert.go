package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"templatehub/application/ports"
	pkgerrors "templatehub/pkg/errors"
)

// toFilter copies filter into a BSON document, converting identifier
// strings under _id (directly or inside operators such as $in) to
// ObjectIDs.
func toFilter(filter ports.Document) (bson.M, error) {
	out := make(bson.M, len(filter))
	for k, v := range filter {
		if k == ports.IDField {
			id, err := toObjectIDs(v)
			if err != nil {
				return nil, err
			}
			out[k] = id
			continue
		}
		out[k] = v
	}
	return out, nil
}

func toObjectIDs(v any) (any, error) {
	switch x := v.(type) {
	case string:
		oid, err := primitive.ObjectIDFromHex(x)
		if err != nil {
			return nil, pkgerrors.NewInvalidArgumentError("invalid document id %q", x)
		}
		return oid, nil
	case []string:
		out := make(bson.A, len(x))
		for i, s := range x {
			oid, err := toObjectIDs(s)
			if err != nil {
				return nil, err
			}
			out[i] = oid
		}
		return out, nil
	case []any:
		out := make(bson.A, len(x))
		for i, e := range x {
			oid, err := toObjectIDs(e)
			if err != nil {
				return nil, err
			}
			out[i] = oid
		}
		return out, nil
	case map[string]any:
		out := make(bson.M, len(x))
		for op, e := range x {
			oid, err := toObjectIDs(e)
			if err != nil {
				return nil, err
			}
			out[op] = oid
		}
		return out, nil
	default:
		return v, nil
	}
}

// toInsert prepares a document for insertion. A caller supplied _id is
// honoured after conversion.
func toInsert(doc ports.Document) (bson.M, error) {
	if doc == nil {
		return nil, pkgerrors.NewInvalidArgumentError("document must not be nil")
	}
	return toFilter(doc)
}

// fromBSON converts a decoded value into plain Go maps and slices.
// ObjectIDs become hex strings and datetimes become UTC times.
func fromBSON(v any) any {
	switch x := v.(type) {
	case bson.M:
		return fromM(x)
	case bson.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			m[e.Key] = fromBSON(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromBSON(e)
		}
		return out
	case map[string]any:
		return fromM(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromBSON(e)
		}
		return out
	case primitive.ObjectID:
		return x.Hex()
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(x.T), 0).UTC()
	default:
		return v
	}
}

func fromM(m map[string]any) ports.Document {
	out := make(ports.Document, len(m))
	for k, v := range m {
		out[k] = fromBSON(v)
	}
	return out
}

func toSort(fields []ports.SortField) bson.D {
	if len(fields) == 0 {
		return nil
	}
	d := make(bson.D, 0, len(fields))
	for _, f := range fields {
		dir := 1
		if f.Descending {
			dir = -1
		}
		d = append(d, bson.E{Key: f.Field, Value: dir})
	}
	return d
}

func toProjection(fields []string) bson.D {
	if len(fields) == 0 {
		return nil
	}
	d := make(bson.D, 0, len(fields))
	for _, f := range fields {
		d = append(d, bson.E{Key: f, Value: 1})
	}
	return d
}

var operators = map[ports.UpdateOperator]string{
	ports.UpdateSet:       "$set",
	ports.UpdatePush:      "$push",
	ports.UpdatePull:      "$pull",
	ports.UpdateUnset:     "$unset",
	ports.UpdateIncrement: "$inc",
}

func toUpdate(u ports.Update) (bson.M, error) {
	op, ok := operators[u.Operator]
	if !ok {
		return nil, pkgerrors.NewInvalidArgumentError("unsupported update operator %s", u.Operator)
	}
	if len(u.Fields) == 0 {
		return nil, pkgerrors.NewInvalidArgumentError("update has no fields")
	}

	fields := make(bson.M, len(u.Fields))
	for k, v := range u.Fields {
		if u.Operator == ports.UpdateUnset {
			v = ""
		}
		fields[k] = v
	}
	return bson.M{op: fields}, nil
}

package stdlib

import (
	"database/sql"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/jargnar/orangensaft/internal/errors"
	"github.com/jargnar/orangensaft/internal/eval"
	"github.com/jargnar/orangensaft/internal/value"
)

func init() {
	allBuiltins = append(allBuiltins, dbExecBuiltin, dbQueryBuiltin)
}

// openDBs caches one *sql.DB per path: a single long-lived connection per
// file rather than reopening on every call. Scripts just name a path and
// never see the handle.
var (
	openDBsMu sync.Mutex
	openDBs   = map[string]*sql.DB{}
)

func dbFor(path string) (*sql.DB, error) {
	openDBsMu.Lock()
	defer openDBsMu.Unlock()
	if db, ok := openDBs[path]; ok {
		return db, nil
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	openDBs[path] = db
	return db, nil
}

// dbExecBuiltin runs a statement with no rows expected (DDL, INSERT/UPDATE/DELETE)
// against a local SQLite file, the one persistent store a script gets without
// talking to a network service.
var dbExecBuiltin = &eval.Builtin{
	Name:   "dbExec",
	Params: []eval.BuiltinParam{{Name: "path"}, {Name: "statement"}, {Name: "args"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		path, err := asString("dbExec", args[0])
		if err != nil {
			return nil, err
		}
		stmt, err := asString("dbExec", args[1])
		if err != nil {
			return nil, err
		}
		params, perr := dbArgs(args[2])
		if perr != nil {
			return nil, perr
		}
		db, derr := dbFor(path)
		if derr != nil {
			return nil, errors.Simple(errors.ClassRuntime, token0, "dbExec(): "+derr.Error())
		}
		res, xerr := db.Exec(stmt, params...)
		if xerr != nil {
			return nil, errors.Simple(errors.ClassRuntime, token0, "dbExec(): "+xerr.Error())
		}
		affected, _ := res.RowsAffected()
		return &value.Int{Value: affected}, nil
	},
}

// dbQueryBuiltin runs a SELECT and returns its rows as a list of objects
// keyed by column name, so script code never deals with a cursor.
var dbQueryBuiltin = &eval.Builtin{
	Name:   "dbQuery",
	Params: []eval.BuiltinParam{{Name: "path"}, {Name: "statement"}, {Name: "args"}},
	Fn: func(args []value.Value) (value.Value, *errors.LangError) {
		path, err := asString("dbQuery", args[0])
		if err != nil {
			return nil, err
		}
		stmt, err := asString("dbQuery", args[1])
		if err != nil {
			return nil, err
		}
		params, perr := dbArgs(args[2])
		if perr != nil {
			return nil, perr
		}
		db, derr := dbFor(path)
		if derr != nil {
			return nil, errors.Simple(errors.ClassRuntime, token0, "dbQuery(): "+derr.Error())
		}
		rows, qerr := db.Query(stmt, params...)
		if qerr != nil {
			return nil, errors.Simple(errors.ClassRuntime, token0, "dbQuery(): "+qerr.Error())
		}
		defer rows.Close()
		cols, cerr := rows.Columns()
		if cerr != nil {
			return nil, errors.Simple(errors.ClassRuntime, token0, "dbQuery(): "+cerr.Error())
		}
		var out []value.Value
		for rows.Next() {
			scanTargets := make([]any, len(cols))
			scanValues := make([]any, len(cols))
			for i := range scanTargets {
				scanTargets[i] = &scanValues[i]
			}
			if serr := rows.Scan(scanTargets...); serr != nil {
				return nil, errors.Simple(errors.ClassRuntime, token0, "dbQuery(): "+serr.Error())
			}
			fields := make(map[string]value.Value, len(cols))
			for i, col := range cols {
				fields[col] = dbCellValue(scanValues[i])
			}
			out = append(out, &value.Object{Fields: fields})
		}
		return &value.List{Elements: out}, nil
	},
}

func dbCellValue(cell any) value.Value {
	switch v := cell.(type) {
	case nil:
		return value.NilValue
	case int64:
		return &value.Int{Value: v}
	case float64:
		return &value.Float{Value: v}
	case bool:
		return &value.Bool{Value: v}
	case []byte:
		return &value.String{Value: string(v)}
	case string:
		return &value.String{Value: v}
	default:
		return &value.String{Value: ""}
	}
}

func dbArgs(v value.Value) ([]any, *errors.LangError) {
	list, ok := v.(*value.List)
	if !ok {
		return nil, errors.Simple(errors.ClassRuntime, token0, "db statement arguments must be a list")
	}
	out := make([]any, len(list.Elements))
	for i, e := range list.Elements {
		out[i] = value.ToJSON(e)
	}
	return out, nil
}

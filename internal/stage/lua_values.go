package stage

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/flarebyte/glossa/internal/document"
)

func toLValue(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(float64(x))
	case int64:
		return lua.LNumber(float64(x))
	case float64:
		return lua.LNumber(x)
	case map[string]any:
		tbl := L.NewTable()
		for k, v2 := range x {
			tbl.RawSetString(k, toLValue(L, v2))
		}
		return tbl
	case []any:
		tbl := L.NewTable()
		for i, v2 := range x {
			tbl.RawSetInt(i+1, toLValue(L, v2))
		}
		return tbl
	default:
		return lua.LNil
	}
}

func fromLValue(v lua.LValue) any {
	switch v.Type() {
	case lua.LTNil:
		return nil
	case lua.LTBool:
		return lua.LVAsBool(v)
	case lua.LTNumber:
		f := float64(v.(lua.LNumber))
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LTString:
		return v.String()
	case lua.LTTable:
		t := v.(*lua.LTable)
		arr := []any{}
		isArray := true
		t.ForEach(func(k, val lua.LValue) {
			if !isArray {
				return
			}
			if lk, ok := k.(lua.LNumber); ok && int(lk) == len(arr)+1 {
				arr = append(arr, fromLValue(val))
				return
			}
			isArray = false
		})
		if isArray {
			return arr
		}
		obj := map[string]any{}
		t.ForEach(func(k, val lua.LValue) {
			obj[k.String()] = fromLValue(val)
		})
		return obj
	default:
		return nil
	}
}

// docValue is the script view of a document.
func docValue(doc *document.Document) map[string]any {
	tokens := make([]any, len(doc.Tokens))
	for i, t := range doc.Tokens {
		tokens[i] = map[string]any{
			"index": t.Index, "word": t.Word, "begin": t.Begin, "end": t.End,
			"pos": t.POS, "lemma": t.Lemma, "ner": t.NER,
		}
	}
	sentences := make([]any, len(doc.Sentences))
	for i, s := range doc.Sentences {
		sentences[i] = map[string]any{
			"index": s.Index, "tokenBegin": s.TokenBegin, "tokenEnd": s.TokenEnd,
			"text": doc.SpanText(s.TokenBegin, s.TokenEnd),
		}
	}
	meta := map[string]any{}
	for k, v := range doc.Meta {
		meta[k] = v
	}
	return map[string]any{
		"id": doc.ID, "text": doc.Text, "date": doc.Date,
		"tokens": tokens, "sentences": sentences, "meta": meta,
	}
}

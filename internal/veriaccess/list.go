package veriaccess

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// List decodes a collection answered either as a bare JSON array or as a
// paginated envelope {count, next, previous, results}.
type List[T any] struct {
	Items    []T
	Count    int
	Next     string
	Previous string

	// Paginated is true when the envelope form was received.
	Paginated bool
}

type envelope[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func (l *List[T]) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	switch {
	case res.Type == gjson.Null:
		*l = List[T]{Items: []T{}}
		return nil
	case res.IsArray():
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		if items == nil {
			items = []T{}
		}
		*l = List[T]{Items: items, Count: len(items)}
		return nil
	case res.IsObject():
		var env envelope[T]
		if err := json.Unmarshal(data, &env); err != nil {
			return err
		}
		if env.Results == nil {
			env.Results = []T{}
		}
		out := List[T]{Items: env.Results, Count: env.Count, Paginated: true}
		if env.Next != nil {
			out.Next = *env.Next
		}
		if env.Previous != nil {
			out.Previous = *env.Previous
		}
		if !res.Get("count").Exists() {
			out.Count = len(env.Results)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("decode list: unexpected %s", res.Type)
	}
}

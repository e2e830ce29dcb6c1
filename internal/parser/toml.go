package parser

import (
	"fmt"
	"sort"
	"strings"
	"time"

	stderrors "errors"

	"github.com/BurntSushi/toml"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/models"
)

func parseTOML(text string) (*models.Value, error) {
	var data map[string]any
	md, err := toml.Decode(text, &data)
	if err != nil {
		var pe toml.ParseError
		if stderrors.As(err, &pe) {
			return nil, errors.NewParsingError(pe.Message, errors.ErrInvalidTOML).WithPos(pe.Position.Line, 0)
		}
		return nil, errors.NewParsingError(err.Error(), errors.ErrInvalidTOML)
	}

	// TOML decodes into maps; MetaData.Keys lists keys in document order, so
	// use it to rank the members of each table.
	order := make(map[string]int)
	for i, key := range md.Keys() {
		joined := strings.Join(key, "\x00")
		if _, seen := order[joined]; !seen {
			order[joined] = i
		}
	}
	t := &tomlConverter{order: order}
	return t.table(nil, data)
}

type tomlConverter struct {
	order map[string]int
}

func (t *tomlConverter) table(path []string, m map[string]any) (*models.Value, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	rank := func(k string) (int, bool) {
		r, ok := t.order[strings.Join(append(append([]string{}, path...), k), "\x00")]
		return r, ok
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, iok := rank(keys[i])
		rj, jok := rank(keys[j])
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})

	obj := models.Object()
	for _, k := range keys {
		v, err := t.value(append(append([]string{}, path...), k), m[k])
		if err != nil {
			return nil, err
		}
		obj.Members = append(obj.Members, models.Member{Key: k, Value: v})
	}
	return obj, nil
}

func (t *tomlConverter) value(path []string, x any) (*models.Value, error) {
	switch v := x.(type) {
	case map[string]any:
		return t.table(path, v)
	case []map[string]any:
		arr := models.Array()
		for _, item := range v {
			tbl, err := t.table(path, item)
			if err != nil {
				return nil, err
			}
			arr.Items = append(arr.Items, tbl)
		}
		return arr, nil
	case []any:
		arr := models.Array()
		for _, item := range v {
			elem, err := t.value(path, item)
			if err != nil {
				return nil, err
			}
			arr.Items = append(arr.Items, elem)
		}
		return arr, nil
	case time.Time:
		return models.String(formatTOMLTime(v)), nil
	default:
		val, err := models.FromInterface(v)
		if err != nil {
			return nil, errors.NewParsingError(fmt.Sprintf("unsupported TOML value at %s", strings.Join(path, ".")), err)
		}
		return val, nil
	}
}

// Zone names the TOML decoder gives to values written without an offset.
const (
	tomlLocalDatetime = "datetime-local"
	tomlLocalDate     = "date-local"
	tomlLocalTime     = "time-local"
)

// formatTOMLTime keeps local dates and times in their short forms.
func formatTOMLTime(ts time.Time) string {
	switch ts.Location().String() {
	case tomlLocalDate:
		return ts.Format("2006-01-02")
	case tomlLocalTime:
		return ts.Format("15:04:05.999999999")
	case tomlLocalDatetime:
		return ts.Format("2006-01-02T15:04:05.999999999")
	default:
		return ts.Format(time.RFC3339Nano)
	}
}

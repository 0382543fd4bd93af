package glotta

import (
	"context"
	"fmt"
	"maps"
	"strings"
)

// ObjectParams configure object field translation.
type ObjectParams struct {
	Fields  []string // Field names whose string values get translated
	To      string   // Target language code (required)
	From    string   // Source language hint (optional)
	Context string   // Disambiguation context (optional)

	// Optional resource-scoped caching: when both are set, each field
	// caches under res:<ResourceType>:<id>:<field>:<to>, where id is read
	// from the item's ResourceIDField.
	ResourceType    string
	ResourceIDField string
}

// fieldTask ties one translatable field value to its owning item.
type fieldTask struct {
	item  int
	field string
	text  string
	res   ResourceInfo
}

// TranslateObject translates the configured string fields of one item and
// returns a shallow copy with the translations applied. The input is
// never mutated. Non-string, nil and whitespace-only field values are
// left untouched.
//
// This boundary is deliberately lenient: any failure is reported through
// the error hook and the original item is returned unchanged.
func (t *Translator) TranslateObject(ctx context.Context, item map[string]any, p ObjectParams) map[string]any {
	if item == nil {
		return nil
	}
	out := t.TranslateObjects(ctx, []map[string]any{item}, p)
	return out[0]
}

// TranslateObjects is the multi-item variant of TranslateObject. On any
// failure the original slice is returned unchanged.
func (t *Translator) TranslateObjects(ctx context.Context, items []map[string]any, p ObjectParams) (out []map[string]any) {
	out = items
	defer func() {
		if r := recover(); r != nil {
			t.reportError(&TranslationError{Message: fmt.Sprintf("object translation panic: %v", r)})
			out = items
		}
	}()

	if len(items) == 0 || len(p.Fields) == 0 {
		return items
	}
	if p.From != "" && p.From == p.To {
		return items
	}

	translated, err := t.translateObjects(ctx, items, p)
	if err != nil {
		t.reportError(&TranslationError{Message: "object translation failed", Cause: err})
		return items
	}
	return translated
}

func (t *Translator) translateObjects(ctx context.Context, items []map[string]any, p ObjectParams) ([]map[string]any, error) {
	var tasks []fieldTask
	for i, item := range items {
		if item == nil {
			continue
		}
		res := t.objectResource(item, p)
		for _, field := range p.Fields {
			text, ok := item[field].(string)
			if !ok || strings.TrimSpace(text) == "" {
				continue
			}
			taskRes := res
			if taskRes.Type != "" {
				taskRes.Field = field
			}
			tasks = append(tasks, fieldTask{item: i, field: field, text: text, res: taskRes})
		}
	}
	if len(tasks) == 0 {
		return items, nil
	}

	batch := make([]batchItem, len(tasks))
	for i, task := range tasks {
		batch[i] = batchItem{Text: task.text, Res: task.res}
	}
	outcomes, err := t.translateItems(ctx, batch, p.From, p.Context, p.To)
	if err != nil {
		return nil, err
	}

	// Apply translations to shallow copies; untouched items pass through.
	out := make([]map[string]any, len(items))
	copy(out, items)
	cloned := make(map[int]bool)
	for i, task := range tasks {
		if !cloned[task.item] {
			cloned[task.item] = true
			out[task.item] = maps.Clone(items[task.item])
		}
		out[task.item][task.field] = outcomes[i].Text
	}
	return out, nil
}

// objectResource derives per-item resource info from the configured id
// field. A missing or empty id disables resource scoping for the item.
func (t *Translator) objectResource(item map[string]any, p ObjectParams) ResourceInfo {
	if p.ResourceType == "" || p.ResourceIDField == "" {
		return ResourceInfo{}
	}
	id := stringifyID(item[p.ResourceIDField])
	if id == "" {
		return ResourceInfo{}
	}
	// Field is filled in per task.
	return ResourceInfo{Type: p.ResourceType, ID: id}
}

// stringifyID renders an id field value as a key segment. Strings pass
// through; integral and floating ids render without a decimal point when
// whole. Anything else is not an id.
func stringifyID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case int:
		return fmt.Sprintf("%d", id)
	case int32:
		return fmt.Sprintf("%d", id)
	case int64:
		return fmt.Sprintf("%d", id)
	case float64:
		if id == float64(int64(id)) {
			return fmt.Sprintf("%d", int64(id))
		}
		return fmt.Sprintf("%v", id)
	case fmt.Stringer:
		return id.String()
	default:
		return ""
	}
}

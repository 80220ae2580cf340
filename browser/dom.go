package browser

import (
	"fmt"

	"github.com/hupe1980/webscout/core"
)

// IndexAttribute marks indexed elements in the live DOM.
const IndexAttribute = "data-webscout-index"

// includeAttributes are the element attributes shown to the model.
var includeAttributes = []string{
	"title", "type", "name", "role", "aria-label", "placeholder", "value", "alt", "aria-expanded", "href",
}

// indexScript tags every visible interactive element inside the viewport
// and returns them in document order.
const indexScript = `(attrs) => {
	const sel = 'a[href], button, input:not([type=hidden]), select, textarea, summary, [role=button], [role=link], [role=checkbox], [role=menuitem], [role=tab], [onclick], [contenteditable=true]';
	document.querySelectorAll('[` + IndexAttribute + `]').forEach(e => e.removeAttribute('` + IndexAttribute + `'));
	const out = [];
	for (const el of document.querySelectorAll(sel)) {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) continue;
		if (r.bottom < 0 || r.top > window.innerHeight || r.right < 0 || r.left > window.innerWidth) continue;
		const style = window.getComputedStyle(el);
		if (style.visibility === 'hidden' || style.display === 'none') continue;
		const index = out.length;
		el.setAttribute('` + IndexAttribute + `', String(index));
		const a = {};
		for (const name of attrs) {
			const v = el.getAttribute(name);
			if (v) a[name] = v.slice(0, 100);
		}
		out.push({index, tag: el.tagName.toLowerCase(), text: (el.innerText || el.value || '').trim().replace(/\s+/g, ' ').slice(0, 100), attributes: a});
	}
	return out;
}`

// scrollScript returns [pixels above, pixels below] of the viewport.
const scrollScript = `() => {
	const d = document.documentElement;
	return [Math.round(window.scrollY), Math.max(0, Math.round(d.scrollHeight - window.innerHeight - window.scrollY))];
}`

// optionsScript lists the option texts of an indexed select.
const optionsScript = `(index) => {
	const el = document.querySelector('[` + IndexAttribute + `="' + index + '"]');
	if (!el || el.tagName.toLowerCase() !== 'select') return null;
	return Array.from(el.options).map(o => o.text);
}`

func selector(index int) string {
	return fmt.Sprintf("[%s=%q]", IndexAttribute, fmt.Sprint(index))
}

// parseElements converts the result of indexScript.
func parseElements(v any) ([]core.Element, error) {
	items, ok := v.([]any)
	if !ok {
		if v == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected element list %T", v)
	}

	elements := make([]core.Element, 0, len(items))

	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected element %T", item)
		}

		e := core.Element{
			Index: toInt(m["index"]),
			Tag:   fmt.Sprint(m["tag"]),
		}

		if s, ok := m["text"].(string); ok {
			e.Text = s
		}

		if attrs, ok := m["attributes"].(map[string]any); ok && len(attrs) > 0 {
			e.Attributes = make(map[string]string, len(attrs))
			for k, v := range attrs {
				e.Attributes[k] = fmt.Sprint(v)
			}
		}

		elements = append(elements, e)
	}

	return elements, nil
}

// parsePair converts a two element numeric array.
func parsePair(v any) (int, int) {
	items, ok := v.([]any)
	if !ok || len(items) != 2 {
		return 0, 0
	}
	return toInt(items[0]), toInt(items[1])
}

func parseStrings(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprint(item))
	}

	return out, true
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

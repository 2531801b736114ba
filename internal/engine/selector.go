package engine

import "sort"

// SelectOrder produces the ordered provider candidate list for a task.
//
// Force mode returns a singleton with no fallback chain: an explicit
// operator choice is not second-guessed. Otherwise providers matching the
// task's document type or intent are ranked by affinity, then declared
// accuracy, then registration order; non-matching providers are appended
// last in registration order as a generic last resort. An empty result is
// the signal to go straight to the deterministic fallback producer.
func SelectOrder(task Task, registry *Registry) []string {
	if task.ForceProvider != "" {
		if d, ok := registry.Get(task.ForceProvider); ok && d.Kind == task.Kind && configuredFor(d, task) {
			return []string{d.ID}
		}
		return nil
	}

	candidates := registry.listFor(task.Kind, task)
	if len(candidates) == 0 {
		return nil
	}

	tag := task.DocumentType
	if tag == "" {
		tag = task.Intent
	}

	type ranked struct {
		id       string
		affinity int
		accuracy float64
		order    int
	}

	var matched, rest []ranked
	for i, d := range candidates {
		r := ranked{id: d.ID, accuracy: d.Accuracy, order: i}
		if tag != "" && d.HasTag(tag) {
			r.affinity = 1
		}
		if !d.SupportsLanguage(task.Language) {
			rest = append(rest, r)
			continue
		}
		if r.affinity > 0 {
			matched = append(matched, r)
		} else {
			rest = append(rest, r)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].affinity != matched[j].affinity {
			return matched[i].affinity > matched[j].affinity
		}
		if matched[i].accuracy != matched[j].accuracy {
			return matched[i].accuracy > matched[j].accuracy
		}
		return matched[i].order < matched[j].order
	})

	out := make([]string, 0, len(candidates))
	for _, r := range matched {
		out = append(out, r.id)
	}
	for _, r := range rest {
		out = append(out, r.id)
	}
	return out
}

package scenario

import (
	"fmt"
	"strings"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/sheet"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/tracks"
)

func (r *Runner) failf(format string, args ...any) error {
	return r.assertions.Failf(format, args...)
}

func (r *Runner) assertf(format string, args ...any) error {
	return r.assertions.Assertf(format, args...)
}

// buildCharacter turns a sheet{} table into a character. The id defaults
// to the lower-cased name.
func buildCharacter(args map[string]any) (sheet.Character, error) {
	name := requiredString(args, "name")
	if name == "" {
		return sheet.Character{}, fmt.Errorf("name is required")
	}
	c := sheet.Character{
		ID:           optionalString(args, "id", strings.ToLower(strings.Join(strings.Fields(name), "-"))),
		Name:         name,
		Clan:         optionalString(args, "clan", ""),
		BloodPotency: optionalInt(args, "blood_potency", 0),
		Hunger:       optionalInt(args, "hunger", 0),
	}

	var err error
	if c.Attributes, err = readIntMap(args, "attributes"); err != nil {
		return sheet.Character{}, err
	}
	if c.Skills, err = readIntMap(args, "skills"); err != nil {
		return sheet.Character{}, err
	}
	if c.Disciplines, err = readIntMap(args, "disciplines"); err != nil {
		return sheet.Character{}, err
	}
	if c.Specialties, err = readSpecialties(args); err != nil {
		return sheet.Character{}, err
	}
	if c.Willpower, err = readBoxes(args, "willpower"); err != nil {
		return sheet.Character{}, err
	}
	if c.Health, err = readBoxes(args, "health"); err != nil {
		return sheet.Character{}, err
	}
	if value, ok := readInt(args, "humanity"); ok {
		c.Humanity = tracks.NewHumanity(value).Stain(optionalInt(args, "stains", 0))
	} else if stains := optionalInt(args, "stains", 0); stains > 0 {
		c.Humanity = tracks.NewHumanity(7).Stain(stains)
	}
	return c, nil
}

// readBoxes reads a damage track given as a box count or as a table with
// total, superficial and aggravated counts. Damage fills from the left.
func readBoxes(args map[string]any, key string) (tracks.Boxes, error) {
	value, ok := args[key]
	if !ok {
		return nil, nil
	}
	if total, ok := asInt(value); ok {
		return tracks.NewBoxes(total), nil
	}
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a number or table", key)
	}
	total, ok := readInt(fields, "total")
	if !ok {
		return nil, fmt.Errorf("%s.total is required", key)
	}
	aggravated := optionalInt(fields, "aggravated", 0)
	superficial := optionalInt(fields, "superficial", 0)
	if aggravated+superficial > total {
		return nil, fmt.Errorf("%s has more damage than boxes", key)
	}
	boxes := tracks.NewBoxes(total)
	for i := range boxes {
		switch {
		case i < aggravated:
			boxes[i] = tracks.Aggravated
		case i < aggravated+superficial:
			boxes[i] = tracks.Superficial
		}
	}
	return boxes, nil
}

func readIntMap(args map[string]any, key string) (map[string]int, error) {
	value, ok := args[key]
	if !ok {
		return nil, nil
	}
	if list, ok := value.([]any); ok && len(list) == 0 {
		return nil, nil
	}
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a table of name = dots", key)
	}
	out := make(map[string]int, len(fields))
	for name := range fields {
		dots, ok := readInt(fields, name)
		if !ok {
			return nil, fmt.Errorf("%s.%s must be a number", key, name)
		}
		out[name] = dots
	}
	return out, nil
}

func readSpecialties(args map[string]any) (map[string][]string, error) {
	value, ok := args["specialties"]
	if !ok {
		return nil, nil
	}
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("specialties must be a table of skill = {names}")
	}
	out := make(map[string][]string, len(fields))
	for skill, raw := range fields {
		switch typed := raw.(type) {
		case string:
			out[skill] = []string{typed}
		case []any:
			for _, item := range typed {
				name, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("specialties.%s must list names", skill)
				}
				out[skill] = append(out[skill], name)
			}
		default:
			return nil, fmt.Errorf("specialties.%s must list names", skill)
		}
	}
	return out, nil
}

func readIntList(args map[string]any, key string) ([]int, error) {
	value, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("%s is required", key)
	}
	return toIntList(value)
}

func toIntList(value any) ([]int, error) {
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of numbers")
	}
	out := make([]int, 0, len(list))
	for _, item := range list {
		n, ok := asInt(item)
		if !ok {
			return nil, fmt.Errorf("expected a list of numbers, got %v", item)
		}
		out = append(out, n)
	}
	return out, nil
}

func requiredString(args map[string]any, key string) string {
	value, ok := args[key]
	if !ok {
		return ""
	}
	text, ok := value.(string)
	if ok && text != "" {
		return text
	}
	return ""
}

func asInt(value any) (int, bool) {
	switch typed := value.(type) {
	case int:
		return typed, true
	case float64:
		return int(typed), true
	default:
		return 0, false
	}
}

func readInt(args map[string]any, key string) (int, bool) {
	value, ok := args[key]
	if !ok {
		return 0, false
	}
	return asInt(value)
}

func optionalString(args map[string]any, key, fallback string) string {
	value, ok := args[key]
	if !ok {
		return fallback
	}
	text, ok := value.(string)
	if ok && text != "" {
		return text
	}
	return fallback
}

func optionalInt(args map[string]any, key string, fallback int) int {
	if value, ok := readInt(args, key); ok {
		return value
	}
	return fallback
}

func optionalBool(args map[string]any, key string, fallback bool) bool {
	value, ok := args[key]
	if !ok {
		return fallback
	}
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		lower := strings.ToLower(strings.TrimSpace(typed))
		if lower == "true" || lower == "yes" || lower == "1" {
			return true
		}
		if lower == "false" || lower == "no" || lower == "0" {
			return false
		}
	}
	return fallback
}

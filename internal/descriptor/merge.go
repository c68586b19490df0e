package descriptor

import (
	"github.com/mitchellh/copystructure"
)

// DeepMerge recursively merges overlay into base and returns a new map.
// Merge semantics:
//   - Both maps: recursive merge
//   - Anything else (scalars, lists, type changes): overlay replaces base
//
// Neither input is modified.
func DeepMerge(base, overlay map[string]any) map[string]any {
	result := copyMap(base)

	for key, overlayValue := range overlay {
		baseValue, exists := result[key]
		if !exists {
			result[key] = deepCopy(overlayValue)
			continue
		}

		baseMap, baseIsMap := baseValue.(map[string]any)
		overlayMap, overlayIsMap := overlayValue.(map[string]any)
		if baseIsMap && overlayIsMap {
			result[key] = DeepMerge(baseMap, overlayMap)
			continue
		}

		result[key] = deepCopy(overlayValue)
	}

	return result
}

// copyMap creates a shallow copy of a map.
func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

// deepCopy creates a deep copy of any value.
func deepCopy(value any) any {
	if value == nil {
		return nil
	}
	return copystructure.Must(copystructure.Copy(value))
}

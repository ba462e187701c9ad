package dice

// RollWithSource rolls dice using a provided random source.
//
// # Ordering
//
// Specs are processed in slice order. The resulting Roll entries in
// Result.Rolls appear in the same order as the corresponding Spec entries.
//
// # Errors
//
//   - At least one Spec must be provided, otherwise ErrMissingDice is
//     returned.
//   - Each Spec must have Sides > 0 and Count > 0, otherwise
//     ErrInvalidDiceSpec is returned.
//
// The caller keeps src across rolls, so a reroll never repeats the values
// of the roll before it the way a reseeded source would.
//
// Example:
//
//	result, err := RollWithSource(rand.New(rand.NewSource(1)), []Spec{
//	    {Sides: 10, Count: 4}, // standard pool
//	    {Sides: 10, Count: 2}, // hunger pool
//	})
func RollWithSource(src Source, specs []Spec) (Result, error) {
	if len(specs) == 0 {
		return Result{}, ErrMissingDice
	}

	rolls := make([]Roll, 0, len(specs))
	total := 0

	for _, spec := range specs {
		if spec.Sides <= 0 || spec.Count <= 0 {
			return Result{}, ErrInvalidDiceSpec
		}

		results := make([]int, spec.Count)
		rollTotal := 0
		for i := 0; i < spec.Count; i++ {
			value := rollDie(src, spec.Sides)
			results[i] = value
			rollTotal += value
		}

		rolls = append(rolls, Roll{
			Sides:   spec.Sides,
			Results: results,
			Total:   rollTotal,
		})
		total += rollTotal
	}

	return Result{
		Rolls: rolls,
		Total: total,
	}, nil
}

// rollDie rolls a single die with the provided number of sides.
func rollDie(src Source, sides int) int {
	return src.Intn(sides) + 1
}

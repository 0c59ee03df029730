package estimate

// FlatStart sets [FlatVoltage] on every null bus of t and returns how many
// buses it filled. Resolved buses are never touched, so calling it again is
// a no-op.
func FlatStart(t *Table) int {
	n := 0
	for _, bus := range t.buses {
		if t.Resolved(bus) {
			continue
		}
		t.set(bus, FlatVoltage)
		n++
	}
	return n
}

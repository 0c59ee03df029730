package estimate

// seed assigns each in-service ext grid's voltage to its region. Sources are
// processed in table order; when two sources share a region the later one wins.
func (e *estimator) seed() {
	for _, eg := range e.net.InServiceExtGrids() {
		region, err := e.graph.ConnectedComponent(eg.Bus)
		if err != nil {
			e.issues = append(e.issues, Issue{Kind: IssueExtGrid, Element: eg.ID, Bus: eg.Bus, Err: err})
			continue
		}
		e.assign(region, Voltage{VmPU: eg.VmPU, VaDegree: eg.VaDegree})
		e.stats.Sources++
		e.stats.SeededBuses += len(region)

		e.logger.Debug("seeded region", "ext_grid", eg.ID, "bus", eg.Bus, "buses", len(region),
			"vm_pu", eg.VmPU, "va_degree", eg.VaDegree)
	}
}

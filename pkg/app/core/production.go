package core

// Tick advances production by one period and reprices both goods.
// StorageCap is checked before adding, so a stock may end a tick slightly above it.
func Tick(s *MarketState) {
	if s.Village.Wheat.LessThan(StorageCap) {
		s.Village.Wheat = s.Village.Wheat.Add(s.Village.WheatProductionRate)
	}
	if s.Town.Tools.LessThan(StorageCap) {
		s.Town.Tools = s.Town.Tools.Add(s.Town.ToolsProductionRate)
	}
	RecomputePrices(s)
}

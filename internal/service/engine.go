package service

// Engine bundles every game service behind one facade. Callers embed or
// wrap it to expose the operations over whatever transport they choose;
// the daemon only drives Cycles and Resolution.
type Engine struct {
	Actions     *ActionService
	Collectives *CollectiveService
	Cycles      *CycleService
	Resolution  *ResolutionService
	Effects     *EffectService
	Trades      *TradeService
	Events      EventSink
}

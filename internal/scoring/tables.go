package scoring

import "sync"

const (
	TableIELTSListening       = "ielts.listening"
	TableIELTSReadingAcademic = "ielts.reading.academic"
	TableIELTSReadingGeneral  = "ielts.reading.general"
)

var IELTSListening = BandTable{
	{Min: 39, Max: 40, Band: 9},
	{Min: 37, Max: 38, Band: 8.5},
	{Min: 35, Max: 36, Band: 8},
	{Min: 32, Max: 34, Band: 7.5},
	{Min: 30, Max: 31, Band: 7},
	{Min: 26, Max: 29, Band: 6.5},
	{Min: 23, Max: 25, Band: 6},
	{Min: 18, Max: 22, Band: 5.5},
	{Min: 16, Max: 17, Band: 5},
	{Min: 13, Max: 15, Band: 4.5},
	{Min: 11, Max: 12, Band: 4},
	{Min: 8, Max: 10, Band: 3.5},
	{Min: 6, Max: 7, Band: 3},
	{Min: 4, Max: 5, Band: 2.5},
	{Min: 0, Max: 3, Band: 2},
}

var IELTSReadingAcademic = BandTable{
	{Min: 39, Max: 40, Band: 9},
	{Min: 37, Max: 38, Band: 8.5},
	{Min: 35, Max: 36, Band: 8},
	{Min: 33, Max: 34, Band: 7.5},
	{Min: 30, Max: 32, Band: 7},
	{Min: 27, Max: 29, Band: 6.5},
	{Min: 23, Max: 26, Band: 6},
	{Min: 19, Max: 22, Band: 5.5},
	{Min: 15, Max: 18, Band: 5},
	{Min: 13, Max: 14, Band: 4.5},
	{Min: 10, Max: 12, Band: 4},
	{Min: 8, Max: 9, Band: 3.5},
	{Min: 6, Max: 7, Band: 3},
	{Min: 4, Max: 5, Band: 2.5},
	{Min: 0, Max: 3, Band: 2},
}

var IELTSReadingGeneral = BandTable{
	{Min: 40, Max: 40, Band: 9},
	{Min: 39, Max: 39, Band: 8.5},
	{Min: 38, Max: 38, Band: 8},
	{Min: 36, Max: 37, Band: 7.5},
	{Min: 34, Max: 35, Band: 7},
	{Min: 32, Max: 33, Band: 6.5},
	{Min: 30, Max: 31, Band: 6},
	{Min: 27, Max: 29, Band: 5.5},
	{Min: 23, Max: 26, Band: 5},
	{Min: 19, Max: 22, Band: 4.5},
	{Min: 15, Max: 18, Band: 4},
	{Min: 12, Max: 14, Band: 3.5},
	{Min: 10, Max: 11, Band: 3},
	{Min: 8, Max: 9, Band: 2.5},
	{Min: 0, Max: 7, Band: 2},
}

var (
	tablesMu sync.RWMutex
	tables   = map[string]BandTable{
		TableIELTSListening:       IELTSListening,
		TableIELTSReadingAcademic: IELTSReadingAcademic,
		TableIELTSReadingGeneral:  IELTSReadingGeneral,
	}
)

// RegisterTable binds a band table to a key like "ielts.listening".
func RegisterTable(key string, t BandTable) {
	if key == "" || len(t) == 0 {
		return
	}
	tablesMu.Lock()
	defer tablesMu.Unlock()
	tables[key] = t
}

// LookupTable returns the table registered under key.
func LookupTable(key string) (BandTable, bool) {
	tablesMu.RLock()
	defer tablesMu.RUnlock()
	t, ok := tables[key]
	return t, ok
}

package dataset

// Summary holds per-directory review statistics.
type Summary struct {
	Root                 string         `json:"root"`
	Total                int            `json:"total"`
	ByCategory           map[string]int `json:"byCategory"`
	CategoryCorrections  int            `json:"categoryCorrections"`
	ByDanceType          map[string]int `json:"byDanceType"`
	DanceTypeCorrections int            `json:"danceTypeCorrections"`
	VideosIndexed        int            `json:"videosIndexed"`
	MissingVideos        int            `json:"missingVideos"`
}

// Summarize counts records by effective category and effective dance type.
func Summarize(ds *Dataset) *Summary {
	s := &Summary{
		Root:          ds.Root,
		Total:         len(ds.Records),
		ByCategory:    make(map[string]int, 2),
		ByDanceType:   make(map[string]int, len(DanceTypes())),
		VideosIndexed: ds.Videos.Len(),
	}
	for _, c := range Categories() {
		s.ByCategory[c.Label()] = 0
	}
	for _, d := range DanceTypes() {
		s.ByDanceType[string(d)] = 0
	}

	for _, rec := range ds.Records {
		s.ByCategory[rec.EffectiveCategory().Label()]++
		s.ByDanceType[string(rec.EffectiveDanceType())]++
		if rec.IsCategoryCorrected() {
			s.CategoryCorrections++
		}
		if rec.CorrectedDanceType != nil {
			s.DanceTypeCorrections++
		}
		if !ds.Videos.Has(rec.DayDanceID) {
			s.MissingVideos++
		}
	}
	return s
}

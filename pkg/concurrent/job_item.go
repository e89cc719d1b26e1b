package concurrent

// TripJob is one origin-destination routing task. Index is the position of
// the OD pair in the input batch so results can be slotted back in input
// order no matter which worker solved them.
type TripJob struct {
	Index   int
	HomeLat float64
	HomeLon float64
	WorkLat float64
	WorkLon float64
}

func NewTripJob(index int, homeLat, homeLon, workLat, workLon float64) TripJob {
	return TripJob{
		Index:   index,
		HomeLat: homeLat,
		HomeLon: homeLon,
		WorkLat: workLat,
		WorkLon: workLon,
	}
}

type PoiSpanJob struct {
	Round   int
	Sources []int32
}

type JobI interface {
	TripJob | PoiSpanJob | []int32
}

type Job[T JobI] struct {
	ID      int
	JobItem T
}

type JobFunc[T JobI, G any] func(job T) G

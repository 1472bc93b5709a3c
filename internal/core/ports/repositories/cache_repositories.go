package repositories

// AnalyticsCache stores derived analytics results under keys tagged by scope.
// Every tag carries a generation that InvalidateTags bumps. A result computed from reads
// taken after Generations(tags) is only stored, and only served, while none of its tags
// has moved since.
type AnalyticsCache interface {
	Get(key string) (any, bool)
	Generations(tags []string) []uint64
	Set(key string, value any, tags []string, gens []uint64)

	// InvalidateTags evicts every entry carrying any of the tags.
	InvalidateTags(tags ...string)
}

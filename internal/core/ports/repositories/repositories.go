package repositories

// RepositoryProvider holds all storage collaborators needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	Tx     TransactionManager
	School SchoolReader
	Cache  AnalyticsCache
}

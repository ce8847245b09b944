package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	SourcesDir        string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	SourceTimeout     int
	MaxItemsPerSource int
	APIAccessKey      string

	// Source credentials
	GitHubToken      string
	ProductHuntToken string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

package models

type Config struct {
	Debug          bool   `yaml:"debug" envconfig:"BOLTZMON_DEBUG"`
	SemVer         string `yaml:"semVer" envconfig:"BOLTZMON_SEMVER" default:"0.1.0"`
	ServiceContact string `yaml:"serviceContact" envconfig:"BOLTZMON_SERVICE_CONTACT" default:"mailto:screening@example.org"`

	Api struct {
		Port string `yaml:"port" envconfig:"BOLTZMON_API_INTERNAL_PORT" default:"5000"`
		// base url used by the handler test suite to reach a running instance
		Url string `yaml:"url" envconfig:"BOLTZMON_API_URL"`
	} `yaml:"api"`

	Boltz struct {
		Url                   string `yaml:"url" envconfig:"BOLTZMON_BOLTZ_URL"`
		ModelId               string `yaml:"modelId" envconfig:"BOLTZMON_BOLTZ_MODEL_ID" default:"boltz-2"`
		RequestTimeoutSeconds int    `yaml:"requestTimeoutSeconds" envconfig:"BOLTZMON_BOLTZ_REQUEST_TIMEOUT_SECONDS" default:"30"`
	} `yaml:"boltz"`

	Monitor struct {
		PollIntervalSeconds    int `yaml:"pollIntervalSeconds" envconfig:"BOLTZMON_POLL_INTERVAL_SECONDS" default:"10"`
		PollAttemptCeiling     int `yaml:"pollAttemptCeiling" envconfig:"BOLTZMON_POLL_ATTEMPT_CEILING" default:"600"`
		ScreeningLigandCap     int `yaml:"screeningLigandCap" envconfig:"BOLTZMON_SCREENING_LIGAND_CAP" default:"1501"`
		SimpleLigandCap        int `yaml:"simpleLigandCap" envconfig:"BOLTZMON_SIMPLE_LIGAND_CAP" default:"100"`
		MaxConcurrentDownloads int `yaml:"maxConcurrentDownloads" envconfig:"BOLTZMON_MAX_CONCURRENT_DOWNLOADS" default:"5"`
		ResultsPageSize        int `yaml:"resultsPageSize" envconfig:"BOLTZMON_RESULTS_PAGE_SIZE" default:"100"`
	} `yaml:"monitor"`

	Elasticsearch struct {
		ArchiveEnabled bool   `yaml:"archiveEnabled" envconfig:"BOLTZMON_ARCHIVE_ENABLED"`
		Url            string `yaml:"url" envconfig:"BOLTZMON_ES_URL"`
		Username       string `yaml:"username" envconfig:"BOLTZMON_ES_USERNAME"`
		Password       string `yaml:"password" envconfig:"BOLTZMON_ES_PASSWORD"`
	} `yaml:"elasticsearch"`
}

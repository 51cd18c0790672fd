package config

const (
	defaultConfigPath          = "~/.config/r2c/config.toml"
	defaultStateDir            = "~/.local/share/r2c/state"
	defaultOutputDir           = "~/.local/share/r2c/deposits"
	defaultLogDir              = "~/.local/share/r2c/logs"
	defaultDepositURL          = "https://doi.crossref.org/servlet/deposit"
	defaultRequestsPerSecond   = 0.5
	defaultCRISBaseURL         = "https://research.chalmers.se/publication/"
	defaultPublicationTypeID   = "645ba094-942d-400a-84cc-ec47ee01ec48"
	defaultMaxRecords          = 50
	defaultCreatedSince        = "2023-06-01"
	defaultDOIIdentifierTypeID = "5907253f-7ad4-4b1e-84d1-7e72ea1d92a8"
	defaultUpdatedBy           = "crossref/doi"
	defaultDepositorName       = "Chalmers Research Support"
	defaultDepositorEmail      = "research.lib@chalmers.se"
	defaultInstitutionName     = "Chalmers University of Technology"
	defaultInstitutionPlace    = "Gothenburg, Sweden"
	defaultInstitutionROR      = "https://ror.org/040wg7k59"
	defaultOrgTypeMarker       = "Chalmers"
	defaultThesisSeriesID      = "3b982ea2-6c34-1014-b6a7-7ac9b7ba4313"
	defaultRequestTimeout      = 30
	defaultBatchDelay          = 10
	defaultWatermarkMargin     = 24
	defaultPublicationType     = "dissertation"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		// Env-backed fields (deposit_url, base_url, publication_type_id,
		// max_records) stay empty here so normalize can consult the
		// environment before falling back to the built-in values.
		Crossref: Crossref{
			RequestsPerSecond: defaultRequestsPerSecond,
		},
		CRIS: CRIS{
			CreatedSince:        defaultCreatedSince,
			DOIIdentifierTypeID: defaultDOIIdentifierTypeID,
			UpdatedBy:           defaultUpdatedBy,
		},
		Depositor: Depositor{
			Name:  defaultDepositorName,
			Email: defaultDepositorEmail,
		},
		Institution: Institution{
			Name:           defaultInstitutionName,
			Place:          defaultInstitutionPlace,
			RORID:          defaultInstitutionROR,
			OrgTypeMarker:  defaultOrgTypeMarker,
			ThesisSeriesID: defaultThesisSeriesID,
		},
		Workflow: Workflow{
			CreateDOI:            true,
			UpdateCRIS:           true,
			RequestTimeout:       defaultRequestTimeout,
			BatchDelay:           defaultBatchDelay,
			WatermarkMarginHours: defaultWatermarkMargin,
			PublicationType:      defaultPublicationType,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

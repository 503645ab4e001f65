package consts

const (
	CONFIG_FILE       = "config.yaml"
	TEMP_FOLDER       = "temp"
	ARCHIVE_FOLDER    = "archive"
	COMBINED_XML_FILE = "combined_epg.xml"
	COMBINED_GZ_FILE  = COMBINED_XML_FILE + ".gz"

	// ARCHIVE_TIME_FORMAT is appended to archived file names.
	ARCHIVE_TIME_FORMAT = "20060102_150405"

	DEFAULT_INDEX_SELECTOR = `a[href$=".xml.gz"]`
	GITHUB_TOKEN_ENV       = "GITHUB_TOKEN"
)

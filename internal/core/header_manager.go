package core

import (
	"net/http"

	"github.com/DonIsaac/keyhunter/internal/config"
	"github.com/DonIsaac/keyhunter/internal/models"
	"github.com/DonIsaac/keyhunter/internal/utils"
)

const (
	// DefaultUserAgent is sent on every request unless overridden by a
	// config file or a --header flag. A realistic desktop-browser string
	// avoids tripping the same anti-scraping heuristics that
	// ScriptDownloader's content-sniffing exists to work around.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"
)

// HeaderManager implements models.HeaderProvider by merging three header
// sources in increasing priority: hardcoded defaults, an optional config
// file, and the command line's repeatable -H flags. This is the same
// default-then-file-then-flag precedence used elsewhere in the config
// layer (see core.Config.ApplyFlags), applied to HTTP headers instead of
// scan parameters.
type HeaderManager struct {
	// configFile is the header config file path, empty means the default.
	configFile string

	// defaults are the hardcoded system headers.
	defaults http.Header

	// config holds headers loaded from the config file.
	config http.Header

	// cli holds headers parsed from -H flags.
	cli http.Header

	// validator checks every header against RFC 7230 before it's used.
	validator *utils.HeaderValidator

	// redactor masks sensitive header values before they're logged.
	redactor *utils.HeaderRedactor

	// configLoader loads and parses the header config file.
	configLoader *config.HeaderConfigLoader

	// loaded is true once LoadConfig has run successfully.
	loaded bool
}

// NewHeaderManager builds a HeaderManager, parsing cliHeaders immediately so
// a malformed -H flag is reported before the scan starts rather than on
// first use.
func NewHeaderManager(configFile string, cliHeaders []string) (*HeaderManager, error) {
	hm := &HeaderManager{
		configFile:   configFile,
		defaults:     getDefaultHeaders(),
		validator:    utils.NewHeaderValidator(),
		redactor:     utils.NewHeaderRedactor(),
		configLoader: config.NewHeaderConfigLoader(configFile),
		loaded:       false,
	}

	if len(cliHeaders) > 0 {
		cliHeadersParsed, err := models.CliHeaders(cliHeaders).Parse()
		if err != nil {
			return nil, err
		}
		hm.cli = cliHeadersParsed
	} else {
		hm.cli = make(http.Header)
	}

	return hm, nil
}

// getDefaultHeaders returns the headers sent when neither a config file nor
// a -H flag overrides them.
func getDefaultHeaders() http.Header {
	return http.Header{
		"User-Agent":      []string{DefaultUserAgent},
		"Accept":          []string{"*/*"},
		"Accept-Encoding": []string{"gzip, deflate, br"},
	}
}

// LoadConfig loads the header config file once; subsequent calls are no-ops.
func (hm *HeaderManager) LoadConfig() error {
	if hm.loaded {
		return nil
	}

	headerConfig, err := hm.configLoader.LoadConfig()
	if err != nil {
		utils.Errorf("failed to load HTTP header config: %v", err)
		return err
	}

	hm.config = make(http.Header)
	for name, value := range headerConfig.Headers {
		hm.config.Set(name, value)
	}

	hm.loaded = true

	if len(headerConfig.Headers) > 0 {
		safeHeaders := hm.redactor.Redact(hm.config)
		utils.Debugf("loaded %d HTTP header(s) from config: %v", len(safeHeaders), safeHeaders)
	}

	return nil
}

// Validate checks every header source in priority order: default, config,
// then cli, so the first validation failure reported names the layer that
// introduced it.
func (hm *HeaderManager) Validate() error {
	if err := hm.validator.Validate(hm.defaults); err != nil {
		utils.Errorf("default header validation failed: %v", err)
		return err
	}

	if err := hm.validator.Validate(hm.config); err != nil {
		utils.Errorf("config file header validation failed: %v", err)
		return err
	}

	if err := hm.validator.Validate(hm.cli); err != nil {
		utils.Errorf("command-line header validation failed: %v", err)
		return err
	}

	utils.Debugf("all HTTP headers passed validation")
	return nil
}

// GetMergedHeaders merges default, config, and cli headers, each layer
// overriding the last (default < config < cli).
func (hm *HeaderManager) GetMergedHeaders() http.Header {
	result := make(http.Header)

	for name, values := range hm.defaults {
		result[name] = values
	}

	for name, values := range hm.config {
		result[name] = values
	}

	for name, values := range hm.cli {
		result[name] = values
	}

	return result
}

// GetSafeHeaders returns the merged headers with sensitive values masked,
// suitable for a log line.
func (hm *HeaderManager) GetSafeHeaders() map[string]string {
	merged := hm.GetMergedHeaders()
	return hm.redactor.Redact(merged)
}

// GetHeaders implements models.HeaderProvider: load the config file, verify
// every header, then return the merged result that ScriptDownloader and
// WebsiteWalker attach to every outgoing request.
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	if err := hm.LoadConfig(); err != nil {
		return nil, err
	}

	if err := hm.Validate(); err != nil {
		return nil, err
	}

	return hm.GetMergedHeaders(), nil
}

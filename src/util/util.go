package util

import (
	"errors"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var ErrOutsideRoot = errors.New("url is outside of the crawl root")

const envPrefix = "dirfetch"

// ReadConfig loads defaults, then the config file (if any), then DIRFETCH_* env overrides.
func ReadConfig(filePath string, defaults map[string]interface{}, out interface{}) error {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // for nested structure
	v.AutomaticEnv()

	if filePath != "" {
		v.SetConfigFile(filePath)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return v.Unmarshal(out)
}

// RelativePath returns the local, slash separated path of target below root.
// both are absolute urls, root being the listing page the crawl started from
func RelativePath(root string, target string) (string, error) {
	rURL, err := url.Parse(root)
	if err != nil {
		return "", err
	}
	tURL, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if rURL.Scheme != tURL.Scheme || rURL.Host != tURL.Host {
		return "", ErrOutsideRoot
	}

	// links on the root page resolve against its directory, so do we
	base := rURL.ResolveReference(&url.URL{Path: "./"}).Path
	if !strings.HasPrefix(tURL.Path, base) {
		return "", ErrOutsideRoot
	}

	rel := path.Clean(strings.TrimPrefix(tURL.Path, base))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", ErrOutsideRoot
	}
	return rel, nil
}

// LocalPath joins a slash separated relative path onto dir.
func LocalPath(dir string, rel string) string {
	return filepath.Join(dir, filepath.FromSlash(rel))
}

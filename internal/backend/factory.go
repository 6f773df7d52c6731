package backend

import (
	"time"

	"vroot/internal/config"
	"vroot/internal/constants"
	"vroot/internal/secret"
)

// SourcesFromConfig builds the sources described by cfg in enumeration
// order: card, partitions, mass storage, optical, network.
func SourcesFromConfig(cfg *config.Config, store secret.Store) []Source {
	sc := cfg.Sources
	sources := []Source{
		&CardSource{Enabled: sc.Card.Enabled, Path: sc.Card.Path},
		&PartitionSource{Partitions: sc.Partitions},
		&MassStorageSource{
			Enabled:       sc.MassStorage.Enabled,
			MountInfoPath: sc.MassStorage.MountInfoPath,
			MountGlobs:    sc.MassStorage.MountGlobs,
			FSTypes:       sc.MassStorage.FSTypes,
		},
		&OpticalSource{
			Enabled:       sc.Optical.Enabled,
			MountInfoPath: sc.MassStorage.MountInfoPath,
			FSTypes:       sc.Optical.FSTypes,
			ImageGlobs:    sc.Optical.ImageGlobs,
		},
	}

	env := NewEnvProvider(constants.PasswordEnvVar)
	creds := NewCredentialResolver(store, env)
	shares := make([]config.ShareConfig, 0, len(sc.Network.Shares))
	for _, sh := range sc.Network.Shares {
		if sh.URL != "" {
			parsed, pass, ok := ParseShareURL(sh.URL, sh)
			if !ok {
				log.Warnf("ignoring share %q: bad url %q", sh.Name, sh.URL)
				continue
			}
			sh = parsed
			if pass != "" {
				creds.Put(sh.Host, sh.Share, Credentials{Domain: sh.Domain, Username: sh.User, Password: pass})
			}
		}
		env.Account(sh.Host, sh.Share, sh.Domain, sh.User)
		shares = append(shares, sh)
	}
	sources = append(sources, &NetworkSource{
		Enabled:       sc.Network.Enabled,
		Shares:        shares,
		DialTimeout:   time.Duration(sc.Network.DialTimeoutSeconds) * time.Second,
		Creds:         creds,
		MountInfoPath: sc.MassStorage.MountInfoPath,
	})
	return sources
}

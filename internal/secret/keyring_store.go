package secret

import (
	"errors"
	"strings"

	"github.com/99designs/keyring"
	logging "github.com/ipfs/go-log/v2"

	"vroot/internal/constants"
	apperrors "vroot/internal/errors"
)

var log = logging.Logger("vroot/secret")

type keyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore tries to open the OS keyring via 99designs/keyring.
// If it fails, returns an error so callers can fallback to memory.
func NewKeyringStore() (Store, error) {
	r, err := keyring.Open(keyring.Config{ServiceName: constants.SecretServiceName})
	if err != nil {
		return nil, apperrors.NewSecretError("open", "cannot open OS keyring", err)
	}
	return &keyringStore{ring: r}, nil
}

func (s *keyringStore) Get(host, share string) (Credential, bool, error) {
	item, err := s.ring.Get(makeKey(host, share))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return Credential{}, false, nil
		}
		return Credential{}, false, apperrors.NewSecretError("get", "cannot read credentials", err)
	}
	// Description holds "domain\user" or "user"; Data holds the password.
	c := splitAccount(item.Description)
	c.Password = string(item.Data)
	return c, true, nil
}

func (s *keyringStore) Set(host, share string, c Credential) error {
	if err := s.ring.Set(keyring.Item{
		Key:         makeKey(host, share),
		Data:        []byte(c.Password),
		Description: joinAccount(c),
		Label:       constants.SecretServiceName,
	}); err != nil {
		return apperrors.NewSecretError("set", "cannot store credentials", err)
	}
	return nil
}

func (s *keyringStore) Delete(host, share string) error {
	err := s.ring.Remove(makeKey(host, share))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return apperrors.NewSecretError("delete", "cannot remove credentials", err)
	}
	return nil
}

func joinAccount(c Credential) string {
	if c.Domain != "" {
		return c.Domain + "\\" + c.User
	}
	return c.User
}

// splitAccount parses "domain\user", "domain;user" or "user".
func splitAccount(desc string) Credential {
	if i := strings.IndexAny(desc, `\;`); i >= 0 {
		return Credential{Domain: desc[:i], User: desc[i+1:]}
	}
	return Credential{User: desc}
}

package backend

import (
	"os"
	"sync"

	"vroot/internal/secret"
)

// Credentials represents SMB authentication parameters.
type Credentials struct {
	Domain   string
	Username string
	Password string
	Persist  bool
}

func (c Credentials) empty() bool {
	return c.Domain == "" && c.Username == "" && c.Password == ""
}

// CredentialsProvider can programmatically provide credentials.
type CredentialsProvider interface {
	Get(host, share string) (Credentials, error)
}

// CredentialResolver looks credentials up in memory, then in the secret
// store, then asks the provider. Results are cached per host/share.
type CredentialResolver struct {
	store    secret.Store
	provider CredentialsProvider

	mu    sync.RWMutex
	cache map[string]Credentials
}

// NewCredentialResolver returns a resolver. store and provider may be nil.
func NewCredentialResolver(store secret.Store, provider CredentialsProvider) *CredentialResolver {
	return &CredentialResolver{store: store, provider: provider, cache: make(map[string]Credentials)}
}

func cacheKey(host, share string) string { return host + "\x00" + share }

// Resolve returns the credentials to use for host/share. Missing
// credentials resolve to the zero value (guest login).
func (r *CredentialResolver) Resolve(host, share string) Credentials {
	if c, ok := r.Cached(host, share); ok {
		return c
	}
	if r.store != nil {
		c, found, err := r.store.Get(host, share)
		if err != nil {
			log.Debugf("secret store lookup for %s/%s: %v", host, share, err)
		}
		if found {
			creds := Credentials{Domain: c.Domain, Username: c.User, Password: c.Password}
			r.Put(host, share, creds)
			return creds
		}
	}
	if r.provider == nil {
		return Credentials{}
	}
	c, err := r.provider.Get(host, share)
	if err != nil {
		log.Debugf("credentials provider for %s/%s: %v", host, share, err)
		return Credentials{}
	}
	if !c.empty() {
		r.Put(host, share, c)
	}
	return c
}

// Put seeds the memory cache.
func (r *CredentialResolver) Put(host, share string, c Credentials) {
	r.mu.Lock()
	r.cache[cacheKey(host, share)] = c
	r.mu.Unlock()
}

// Cached returns credentials held in memory without consulting the store or
// the provider.
func (r *CredentialResolver) Cached(host, share string) (Credentials, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cache[cacheKey(host, share)]
	if !ok || c.empty() {
		return Credentials{}, false
	}
	return c, true
}

// Forget drops cached credentials, typically after an authentication failure.
func (r *CredentialResolver) Forget(host, share string) {
	r.mu.Lock()
	delete(r.cache, cacheKey(host, share))
	r.mu.Unlock()
}

// Confirm is called after a successful mount. Credentials marked Persist
// are written to the secret store.
func (r *CredentialResolver) Confirm(host, share string, c Credentials) {
	if !c.Persist || r.store == nil {
		return
	}
	err := r.store.Set(host, share, secret.Credential{Domain: c.Domain, User: c.Username, Password: c.Password})
	if err != nil {
		log.Warnf("persisting credentials for %s/%s: %v", host, share, err)
	}
}

// EnvProvider supplies the configured account of each share with the
// password held in an environment variable. It never persists.
type EnvProvider struct {
	Var      string
	accounts map[string]Credentials
}

// NewEnvProvider returns a provider reading passwords from the variable name.
func NewEnvProvider(name string) *EnvProvider {
	return &EnvProvider{Var: name, accounts: make(map[string]Credentials)}
}

// Account registers the domain and user for host/share.
func (p *EnvProvider) Account(host, share, domain, user string) {
	p.accounts[cacheKey(host, share)] = Credentials{Domain: domain, Username: user}
}

func (p *EnvProvider) Get(host, share string) (Credentials, error) {
	c := p.accounts[cacheKey(host, share)]
	c.Password = os.Getenv(p.Var)
	return c, nil
}

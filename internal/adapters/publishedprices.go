package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/zilazol/price-crawler/internal/dates"
	"github.com/zilazol/price-crawler/internal/types"
)

// PublishedPrices crawls the shared multi-tenant file-manager portal most
// Israeli chains publish through. Each tenant logs in with its own
// credentials and lands in /file, a table of that day's price files.
type PublishedPrices struct{}

func (PublishedPrices) Name() types.AdapterName { return types.AdapterPublishedPrices }

const (
	loginWait    = 25 * time.Second
	loginRetries = 2
)

var (
	usernameSelectors = []string{"input[name='username']", "#username", "input[name='Email']", "input[type='email']"}
	passwordSelectors = []string{"input[name='password']", "#password", "input[type='password']"}
	submitSelectors   = []string{"button[type='submit']", "input[type='submit']", "button:has-text('כניסה')", "button:has-text('Login')"}
)

func (PublishedPrices) Crawl(ctx context.Context, env *Env, retailer types.Retailer, src types.Source, result *types.RetailerResult) error {
	creds, ok := env.Credentials.Lookup(retailer.CredentialKey(src))
	if !ok {
		result.AddReason("credentials_missing")
		result.AddError(fmt.Sprintf("no credentials for tenant %q", retailer.CredentialKey(src)))
		return nil
	}

	base := portalBase(src.URL)
	if err := login(env, base, creds.Username, creds.Password); err != nil {
		// Login failure kills the source, never the retailer.
		result.AddError("login: " + err.Error())
		return err
	}

	if retailer.Folder != "" {
		if err := gotoFolder(env, base, retailer.Folder); err != nil {
			result.AddError("folder: " + err.Error())
		} else {
			result.Subpath = types.StringPtr(retailer.Folder)
		}
	}

	links := collectFileRows(env, src.TodayOnly())
	result.LinksFound = len(links)
	env.Log.Info().Int("links", len(links)).Msg("file manager listed")

	downloadAll(ctx, env, links, result)
	return nil
}

// portalBase strips the path so folder navigation can build /file URLs.
func portalBase(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return strings.TrimRight(rawURL, "/")
	}
	return parsed.Scheme + "://" + parsed.Host
}

// login fills whichever of the known field variants the portal renders and
// submits. Success means landing on a /file URL; if navigation never fires
// we go there directly, since some tenants skip the redirect. The whole
// sequence retries with doubling backoff.
func login(env *Env, base, username, password string) error {
	var lastErr error
	backoff := time.Second
	for attempt := 0; attempt <= loginRetries; attempt++ {
		if attempt > 0 {
			env.Page.WaitForTimeout(backoff)
			backoff *= 2
		}
		if lastErr = loginOnce(env, base, username, password); lastErr == nil {
			return nil
		}
		env.Log.Warn().Int("attempt", attempt+1).Err(lastErr).Msg("login failed")
	}
	return lastErr
}

func loginOnce(env *Env, base, username, password string) error {
	if err := env.Page.Goto(base+"/login", navTimeout); err != nil {
		return err
	}

	if !fillFirst(env, usernameSelectors, username) {
		return fmt.Errorf("username field not found")
	}
	if password != "" {
		fillFirst(env, passwordSelectors, password)
	}
	if !clickFirst(env, submitSelectors) {
		return fmt.Errorf("submit control not found")
	}

	if err := env.Page.WaitForURL("**/file**", loginWait); err != nil {
		// The session may be live even without the redirect.
		if err := env.Page.Goto(base+"/file", loginWait); err != nil {
			return fmt.Errorf("no file manager after login: %w", err)
		}
	}
	return nil
}

func fillFirst(env *Env, selectors []string, value string) bool {
	for _, sel := range selectors {
		if env.Page.HasSelector(sel) {
			if err := env.Page.Fill(sel, value); err == nil {
				return true
			}
		}
	}
	return false
}

func clickFirst(env *Env, selectors []string) bool {
	for _, sel := range selectors {
		if env.Page.HasSelector(sel) {
			if err := env.Page.Click(sel, 5*time.Second); err == nil {
				return true
			}
		}
	}
	return false
}

// gotoFolder enters a tenant subfolder. Direct URL first; if the listing
// comes up empty, fall back to clicking the folder row by name.
func gotoFolder(env *Env, base, folder string) error {
	direct := base + "/file/cdup/" + strings.Trim(folder, "/") + "/"
	if err := env.Page.Goto(direct, 30*time.Second); err == nil {
		env.Page.WaitForTimeout(500 * time.Millisecond)
		if len(collectFileRows(env, false)) > 0 {
			return nil
		}
	}

	if err := env.Page.Goto(base+"/file", 30*time.Second); err != nil {
		return err
	}
	env.Page.WaitForTimeout(500 * time.Millisecond)

	for _, sel := range []string{
		fmt.Sprintf("a:has-text('%s')", folder),
		fmt.Sprintf("tr:has(td:has-text('%s')) a[href]", folder),
	} {
		if env.Page.HasSelector(sel) {
			if err := env.Page.Click(sel, 5*time.Second); err == nil {
				env.Page.WaitForTimeout(800 * time.Millisecond)
				return nil
			}
		}
	}
	return fmt.Errorf("folder %q not found", folder)
}

// collectFileRows reads the file-manager table: one anchor per row plus a
// modified-date cell the portal renders in US month-first order. With the
// today-filter on, rows carrying another day's date are dropped; rows with
// no parseable date are kept, the listing also shows undated entries.
func collectFileRows(env *Env, todayOnly bool) []string {
	_ = env.Page.WaitForNetworkIdle(idleTimeout)
	env.Page.WaitForTimeout(500 * time.Millisecond)

	rows, err := env.Page.MainFrame().Evaluate(fileRowsScript)
	if err != nil {
		env.Log.Warn().Err(err).Msg("row scan failed")
		return nil
	}

	now := env.now()
	var links []string
	for _, row := range asMaps(rows) {
		href, _ := row["href"].(string)
		abs, ok := absolutize(env.Page.URL(), href)
		if !ok {
			continue
		}
		low := strings.ToLower(abs)
		if !hasDownloadSuffix(low) && !strings.Contains(low, "download") {
			continue
		}
		if todayOnly {
			raw, _ := row["date"].(string)
			if rowDate, parsed := dates.ParseRowDate(raw, dates.OrderMDY); parsed && !dates.SameDay(rowDate, now) {
				continue
			}
		}
		links = append(links, abs)
	}
	return uniqueSorted(links)
}

const fileRowsScript = `() => Array.from(document.querySelectorAll('table tr')).flatMap(tr => {
	const a = tr.querySelector('a[href]');
	if (!a) return [];
	const cells = Array.from(tr.querySelectorAll('td')).map(td => (td.textContent || '').trim());
	const date = cells.find(c => /\d{1,2}\/\d{1,2}\/\d{2,4}/.test(c)) || '';
	return [{href: a.getAttribute('href') || '', text: (a.textContent || '').trim(), date}];
})`

func hasDownloadSuffix(lowURL string) bool {
	for _, suffix := range downloadSuffixes {
		if strings.HasSuffix(lowURL, suffix) {
			return true
		}
	}
	return false
}

// asMaps unwraps a browser Evaluate result into row maps.
func asMaps(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

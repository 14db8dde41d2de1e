// -----------------------------------------------------------------------
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ndkgw/internal/common"
	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/connectors/confluence"
	"github.com/ternarybob/ndkgw/internal/connectors/georges"
	"github.com/ternarybob/ndkgw/internal/connectors/github"
	"github.com/ternarybob/ndkgw/internal/connectors/gitlab"
	"github.com/ternarybob/ndkgw/internal/connectors/jira"
	"github.com/ternarybob/ndkgw/internal/connectors/microsoft"
	"github.com/ternarybob/ndkgw/internal/connectors/public"
	"github.com/ternarybob/ndkgw/internal/connectors/testrail"
	"github.com/ternarybob/ndkgw/internal/connectors/web"
	"github.com/ternarybob/ndkgw/internal/coordinator"
	"github.com/ternarybob/ndkgw/internal/downloader"
	"github.com/ternarybob/ndkgw/internal/manifest"
	"github.com/ternarybob/ndkgw/internal/scheduler"
	"github.com/ternarybob/ndkgw/internal/storage"
	"github.com/ternarybob/ndkgw/internal/storage/badger"
	"github.com/ternarybob/ndkgw/internal/uri"
)

// configPaths is a custom flag type that allows multiple -config flags,
// the same repeated-flag idiom the teacher's main.go used.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
	resolveArg   = flag.String("resolve", "", "A ndk:// resource URI or a backend web URL to resolve")
	affordance   = flag.String("affordance", "body", "Affordance to observe after resolving (body, plain, ...)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("ndkgw version %s\n", common.GetVersion())
		os.Exit(0)
	}

	if len(configFiles) == 0 {
		if _, err := os.Stat("ndkgw.toml"); err == nil {
			configFiles = append(configFiles, "ndkgw.toml")
		}
	}

	config, err := common.LoadFromFiles(nil, configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.SetupLogger(config)
	common.PrintBanner(config, logger)

	registry, histories, aliases, cleanup, err := buildRegistry(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage/connectors")
		os.Exit(1)
	}
	defer cleanup()

	if *resolveArg == "" {
		logger.Info().Msg("No -resolve argument given; nothing to do. Run with -resolve <ndk-uri-or-url> to resolve a resource.")
		return
	}

	ref, err := decodeReference(*resolveArg)
	if err != nil {
		logger.Fatal().Err(err).Str("input", *resolveArg).Msg("Could not parse -resolve argument as a resource URI or web URL")
		os.Exit(1)
	}

	ctx := context.Background()
	coord := coordinator.New(registry, histories, aliases, logger)

	loc, err := coord.TryInferLocator(ctx, ref)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to infer a locator for the given reference")
		os.Exit(1)
	}
	if loc == nil {
		logger.Fatal().Msg("No registered connector claims this reference")
		os.Exit(1)
	}

	resolved, err := coord.ResolveLocator(ctx, loc)
	if err != nil {
		logger.Fatal().Err(err).Str("resource_uri", loc.ResourceUri().String()).Msg("Resolve failed")
		os.Exit(1)
	}

	fmt.Printf("resource_uri: %s\n", loc.ResourceUri().String())
	fmt.Printf("cacheable:    %t\n", resolved.Cacheable)

	conn, ok := registry.ByRealm(string(loc.Realm().String()))
	if !ok {
		logger.Fatal().Str("realm", loc.Realm().String()).Msg("No connector registered for realm")
		os.Exit(1)
	}

	aff, err := uri.DecodeAffordance(*affordance)
	if err != nil {
		logger.Fatal().Err(err).Str("affordance", *affordance).Msg("Invalid -affordance value")
		os.Exit(1)
	}

	observed, err := conn.Observe(ctx, loc, aff, resolved)
	if err != nil {
		logger.Fatal().Err(err).Str("affordance", *affordance).Msg("Observe failed")
		os.Exit(1)
	}

	fmt.Printf("bundle_kind:  %s\n", observed.Bundle.Kind())

	if relations, touched := coord.ResolvePostProcessing(ctx, loc.ResourceUri(), observed); len(relations) > 0 {
		fmt.Printf("link_relations: %d (touching %d other resources)\n", len(relations), len(touched))
	}
}

// decodeReference parses resolveArg as either a ndk:// ResourceUri or an
// http(s) WebUrl, the two Reference shapes a connector's Locator may claim
// (spec §3.3).
func decodeReference(raw string) (connectors.Reference, error) {
	if res, err := uri.Decode(raw); err == nil {
		return connectors.ResourceReference{Uri: res}, nil
	}
	w, err := uri.DecodeWebUrl(raw)
	if err != nil {
		return nil, fmt.Errorf("neither a ndk:// resource URI nor a web URL: %w", err)
	}
	return connectors.WebReference{Url: w}, nil
}

// buildRegistry wires the storage layer (spec §4.7) and the connector set
// this build ships with: github, gitlab, jira, confluence, georges,
// testrail, microsoft, public and web.
//
// Credentials for a realm come from connectors.yml (spec §6.6) when an
// entry for it exists there; otherwise from the NDKGW_* environment
// variables the same realm's manifest fields name. Connectors register in
// spec §4.4 dispatch-precedence order: domain-scoped connectors first,
// the public catch-all (arxiv/youtube) before the generic web connector,
// and web last of all.
func buildRegistry(config *common.Config, logger arbor.ILogger) (*connectors.Registry, *storage.ResourceHistoryStore, *storage.AliasStore, func(), error) {
	db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open badger database: %w", err)
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close badger database")
		}
	}

	objects := badger.NewObjectStore(db, logger)
	codecs := storage.NewCodecRegistry()
	codecs.Register(github.FileLocatorCodec{})
	codecs.Register(github.RepositoryLocatorCodec{})
	codecs.Register(github.TreeLocatorCodec{})
	codecs.Register(github.CommitLocatorCodec{})
	codecs.Register(github.CompareLocatorCodec{})
	codecs.Register(gitlab.RepositoryLocatorCodec{})
	codecs.Register(gitlab.FileLocatorCodec{})
	codecs.Register(gitlab.TreeLocatorCodec{})
	codecs.Register(gitlab.CommitLocatorCodec{})
	codecs.Register(gitlab.CompareLocatorCodec{})
	codecs.Register(jira.IssueLocatorCodec{})
	codecs.Register(microsoft.MsSharePointFileLocatorCodec{})
	codecs.Register(microsoft.TeamsLocatorCodec{})
	codecs.Register(microsoft.OutlookLocatorCodec{})
	codecs.Register(public.ArXivLocatorCodec{})
	codecs.Register(public.YouTubeLocatorCodec{})
	codecs.Register(confluence.PageLocatorCodec{})
	codecs.Register(georges.ImageLocatorCodec{})
	codecs.Register(testrail.CaseLocatorCodec{})
	codecs.Register(testrail.RunLocatorCodec{})
	codecs.Register(web.PageLocatorCodec{})

	histories := storage.NewResourceHistoryStore(objects, codecs)
	aliases := storage.NewAliasStore(objects, codecs)

	ctx := context.Background()
	dl := downloader.NewService(nil, logger)

	entries, err := manifest.Load(filepath.Join(config.Connectors.Dir, "connectors.yml"))
	if err != nil {
		cleanup()
		return nil, nil, nil, nil, fmt.Errorf("load connectors.yml: %w", err)
	}
	byKind := make(map[manifest.Kind][]manifest.Entry)
	for _, e := range entries {
		byKind[e.Kind] = append(byKind[e.Kind], e)
	}

	var conns []connectors.Connector

	if ghConn, ok := buildGitHubConnector(ctx, byKind[manifest.KindGitHub], logger); ok {
		conns = append(conns, ghConn)
	}
	if glConns, err := buildGitLabConnectors(ctx, byKind[manifest.KindGitLab], dl, logger); err != nil {
		cleanup()
		return nil, nil, nil, nil, err
	} else {
		conns = append(conns, glConns...)
	}
	if jiraConns, err := buildJiraConnectors(ctx, byKind[manifest.KindJira], dl, logger); err != nil {
		cleanup()
		return nil, nil, nil, nil, err
	} else {
		conns = append(conns, jiraConns...)
	}
	if confConns, err := buildConfluenceConnectors(ctx, byKind[manifest.KindConfluence], dl, logger); err != nil {
		cleanup()
		return nil, nil, nil, nil, err
	} else {
		conns = append(conns, confConns...)
	}
	if geConns, err := buildGeorgesConnectors(byKind[manifest.KindGeorges], dl); err != nil {
		cleanup()
		return nil, nil, nil, nil, err
	} else {
		conns = append(conns, geConns...)
	}
	if trConns, err := buildTestRailConnectors(ctx, byKind[manifest.KindTestRail], dl, logger); err != nil {
		cleanup()
		return nil, nil, nil, nil, err
	} else {
		conns = append(conns, trConns...)
	}
	if msConns, err := buildMicrosoftConnectors(ctx, byKind[manifest.KindMicrosoftMy], byKind[manifest.KindMicrosoftOrg], dl, logger); err != nil {
		cleanup()
		return nil, nil, nil, nil, err
	} else {
		conns = append(conns, msConns...)
	}

	// public (arxiv/youtube) needs no credentials; it always registers,
	// ahead of the generic "web" catch-all which always registers last
	// (spec §4.4 dispatch precedence).
	conns = append(conns, public.NewConnector(dl))
	conns = append(conns, web.NewConnector(dl))

	sched := scheduler.NewService(logger)
	for _, c := range conns {
		refresher, ok := c.(connectors.Refresher)
		if !ok {
			continue
		}
		realm := c.Realm().String()
		if err := sched.RegisterRefresher(realm, "*/15 * * * *", refresher, nil); err != nil {
			logger.Warn().Err(err).Str("realm", realm).Msg("Failed to register refresh job")
			continue
		}
	}
	sched.Start()

	fullCleanup := func() {
		sched.Stop()
		cleanup()
	}

	return connectors.NewRegistry(conns...), histories, aliases, fullCleanup, nil
}

// buildGitHubConnector constructs the single github connector from either
// its connectors.yml entry or the NDKGW_GITHUB_TOKEN environment variable.
func buildGitHubConnector(ctx context.Context, entries []manifest.Entry, logger arbor.ILogger) (*github.Connector, bool) {
	fallback := ""
	if len(entries) > 0 && entries[0].GitHub != nil {
		fallback = entries[0].GitHub.PublicToken
	}
	token, err := common.ResolveAPIKey(ctx, nil, "github_token", fallback)
	if err != nil {
		logger.Warn().Err(err).Msg("No GitHub token configured (NDKGW_GITHUB_TOKEN); github connector disabled")
		return nil, false
	}
	conn, err := github.NewConnector(token)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to build github connector")
		return nil, false
	}
	return conn, true
}

// buildGitLabConnectors constructs one gitlab connector per connectors.yml
// gitlab entry, plus a single env-var-configured instance when none are
// listed (NDKGW_GITLAB_DOMAIN / NDKGW_GITLAB_TOKEN).
func buildGitLabConnectors(ctx context.Context, entries []manifest.Entry, dl *downloader.Service, logger arbor.ILogger) ([]connectors.Connector, error) {
	if len(entries) == 0 {
		domain := os.Getenv("NDKGW_GITLAB_DOMAIN")
		if domain == "" {
			return nil, nil
		}
		token, err := common.ResolveAPIKey(ctx, nil, "gitlab_token", "")
		if err != nil {
			logger.Warn().Err(err).Msg("No GitLab token configured (NDKGW_GITLAB_TOKEN); gitlab connector disabled")
			return nil, nil
		}
		conn, err := gitlab.NewConnector(domain, token, dl)
		if err != nil {
			return nil, fmt.Errorf("build gitlab connector: %w", err)
		}
		return []connectors.Connector{conn}, nil
	}

	var out []connectors.Connector
	for _, e := range entries {
		token, err := common.ResolveAPIKey(ctx, nil, "gitlab_token", e.GitLab.PublicToken)
		if err != nil {
			logger.Warn().Err(err).Str("domain", e.GitLab.Domain).Msg("No GitLab token configured; gitlab connector disabled")
			continue
		}
		conn, err := gitlab.NewConnector(e.GitLab.Domain, token, dl)
		if err != nil {
			return nil, fmt.Errorf("build gitlab connector for %s: %w", e.GitLab.Domain, err)
		}
		out = append(out, conn)
	}
	return out, nil
}

// buildJiraConnectors mirrors buildGitLabConnectors for the jira realm
// (NDKGW_JIRA_DOMAIN / NDKGW_JIRA_USERNAME / NDKGW_JIRA_TOKEN as fallback).
func buildJiraConnectors(ctx context.Context, entries []manifest.Entry, dl *downloader.Service, logger arbor.ILogger) ([]connectors.Connector, error) {
	if len(entries) == 0 {
		domain := os.Getenv("NDKGW_JIRA_DOMAIN")
		if domain == "" {
			return nil, nil
		}
		token, err := common.ResolveAPIKey(ctx, nil, "jira_token", "")
		if err != nil {
			logger.Warn().Err(err).Msg("No Jira token configured (NDKGW_JIRA_TOKEN); jira connector disabled")
			return nil, nil
		}
		username := os.Getenv("NDKGW_JIRA_USERNAME")
		conn, err := jira.NewConnector(domain, username, token, dl)
		if err != nil {
			return nil, fmt.Errorf("build jira connector: %w", err)
		}
		return []connectors.Connector{conn}, nil
	}

	var out []connectors.Connector
	for _, e := range entries {
		token, err := common.ResolveAPIKey(ctx, nil, "jira_token", e.Jira.PublicToken)
		if err != nil {
			logger.Warn().Err(err).Str("domain", e.Jira.Domain).Msg("No Jira token configured; jira connector disabled")
			continue
		}
		conn, err := jira.NewConnector(e.Jira.Domain, e.Jira.PublicUsername, token, dl)
		if err != nil {
			return nil, fmt.Errorf("build jira connector for %s: %w", e.Jira.Domain, err)
		}
		out = append(out, conn)
	}
	return out, nil
}

// buildConfluenceConnectors mirrors buildGitLabConnectors for the
// confluence realm (NDKGW_CONFLUENCE_DOMAIN / NDKGW_CONFLUENCE_TOKEN as
// fallback; the token is optional since Confluence instances may permit
// anonymous reads).
func buildConfluenceConnectors(ctx context.Context, entries []manifest.Entry, dl *downloader.Service, logger arbor.ILogger) ([]connectors.Connector, error) {
	if len(entries) == 0 {
		domain := os.Getenv("NDKGW_CONFLUENCE_DOMAIN")
		if domain == "" {
			return nil, nil
		}
		token, _ := common.ResolveAPIKey(ctx, nil, "confluence_token", "")
		conn, err := confluence.NewConnector(domain, token, dl)
		if err != nil {
			return nil, fmt.Errorf("build confluence connector: %w", err)
		}
		return []connectors.Connector{conn}, nil
	}

	var out []connectors.Connector
	for _, e := range entries {
		token, _ := common.ResolveAPIKey(ctx, nil, "confluence_token", e.Confluence.PublicToken)
		conn, err := confluence.NewConnector(e.Confluence.Domain, token, dl)
		if err != nil {
			return nil, fmt.Errorf("build confluence connector for %s: %w", e.Confluence.Domain, err)
		}
		out = append(out, conn)
	}
	return out, nil
}

// buildGeorgesConnectors builds one georges connector per connectors.yml
// entry, or a single env-var-configured instance (NDKGW_GEORGES_DOMAIN)
// when none are listed. The blob store needs no credentials of its own.
func buildGeorgesConnectors(entries []manifest.Entry, dl *downloader.Service) ([]connectors.Connector, error) {
	if len(entries) == 0 {
		domain := os.Getenv("NDKGW_GEORGES_DOMAIN")
		if domain == "" {
			return nil, nil
		}
		conn, err := georges.NewConnector(domain, dl)
		if err != nil {
			return nil, fmt.Errorf("build georges connector: %w", err)
		}
		return []connectors.Connector{conn}, nil
	}

	var out []connectors.Connector
	for _, e := range entries {
		conn, err := georges.NewConnector(e.Georges.Domain, dl)
		if err != nil {
			return nil, fmt.Errorf("build georges connector for %s: %w", e.Georges.Domain, err)
		}
		out = append(out, conn)
	}
	return out, nil
}

// buildTestRailConnectors builds one testrail connector per
// connectors.yml entry, or a single env-var-configured instance
// (NDKGW_TESTRAIL_DOMAIN / _USERNAME / _PASSWORD) when none are listed.
func buildTestRailConnectors(ctx context.Context, entries []manifest.Entry, dl *downloader.Service, logger arbor.ILogger) ([]connectors.Connector, error) {
	if len(entries) == 0 {
		domain := os.Getenv("NDKGW_TESTRAIL_DOMAIN")
		if domain == "" {
			return nil, nil
		}
		username := os.Getenv("NDKGW_TESTRAIL_USERNAME")
		password, _ := common.ResolveAPIKey(ctx, nil, "testrail_password", "")
		conn, err := testrail.NewConnector(domain, username, password, dl)
		if err != nil {
			return nil, fmt.Errorf("build testrail connector: %w", err)
		}
		return []connectors.Connector{conn}, nil
	}

	var out []connectors.Connector
	for _, e := range entries {
		password, err := common.ResolveAPIKey(ctx, nil, "testrail_password", e.TestRail.PublicPassword)
		if err != nil {
			logger.Warn().Err(err).Str("domain", e.TestRail.Domain).Msg("No TestRail password configured; testrail connector disabled")
			continue
		}
		conn, err := testrail.NewConnector(e.TestRail.Domain, e.TestRail.PublicUsername, password, dl)
		if err != nil {
			return nil, fmt.Errorf("build testrail connector for %s: %w", e.TestRail.Domain, err)
		}
		out = append(out, conn)
	}
	return out, nil
}

// buildMicrosoftConnectors builds one microsoft connector per
// microsoft-my/microsoft-org connectors.yml entry, or a single
// env-var-configured instance (NDKGW_MICROSOFT_DOMAIN / _TENANT_ID /
// _CLIENT_ID / _CLIENT_SECRET) when none are listed.
func buildMicrosoftConnectors(ctx context.Context, myEntries, orgEntries []manifest.Entry, dl *downloader.Service, logger arbor.ILogger) ([]connectors.Connector, error) {
	var out []connectors.Connector

	for _, e := range myEntries {
		clientID, _ := common.ResolveAPIKey(ctx, nil, "microsoft_client_id", "")
		clientSecret, err := common.ResolveAPIKey(ctx, nil, "microsoft_client_secret", "")
		if err != nil {
			logger.Warn().Err(err).Str("domain", e.MicrosoftMy.Domain).Msg("No Microsoft client secret configured; microsoft-my connector disabled")
			continue
		}
		shared := microsoft.NewSharedState(e.MicrosoftMy.TenantID, clientID, clientSecret)
		conn, err := microsoft.NewConnector(e.MicrosoftMy.Domain, shared, dl, nil, microsoft.ImapConfig{})
		if err != nil {
			return nil, fmt.Errorf("build microsoft-my connector for %s: %w", e.MicrosoftMy.Domain, err)
		}
		out = append(out, conn)
	}

	for _, e := range orgEntries {
		clientID, err := common.ResolveAPIKey(ctx, nil, "microsoft_client_id", e.MicrosoftOrg.PublicClientID)
		if err != nil {
			logger.Warn().Err(err).Str("domain", e.MicrosoftOrg.Domain).Msg("No Microsoft client id configured; microsoft-org connector disabled")
			continue
		}
		clientSecret, err := common.ResolveAPIKey(ctx, nil, "microsoft_client_secret", e.MicrosoftOrg.PublicClientSecret)
		if err != nil {
			logger.Warn().Err(err).Str("domain", e.MicrosoftOrg.Domain).Msg("No Microsoft client secret configured; microsoft-org connector disabled")
			continue
		}
		shared := microsoft.NewSharedState(e.MicrosoftOrg.TenantID, clientID, clientSecret)
		conn, err := microsoft.NewConnector(e.MicrosoftOrg.Domain, shared, dl, e.MicrosoftOrg.RefreshSiteIDs, microsoft.ImapConfig{})
		if err != nil {
			return nil, fmt.Errorf("build microsoft-org connector for %s: %w", e.MicrosoftOrg.Domain, err)
		}
		out = append(out, conn)
	}

	if len(myEntries) == 0 && len(orgEntries) == 0 {
		domain := os.Getenv("NDKGW_MICROSOFT_DOMAIN")
		tenantID := os.Getenv("NDKGW_MICROSOFT_TENANT_ID")
		if domain == "" || tenantID == "" {
			return out, nil
		}
		clientID, _ := common.ResolveAPIKey(ctx, nil, "microsoft_client_id", "")
		clientSecret, err := common.ResolveAPIKey(ctx, nil, "microsoft_client_secret", "")
		if err != nil {
			logger.Warn().Err(err).Msg("No Microsoft client secret configured (NDKGW_MICROSOFT_CLIENT_SECRET); microsoft connector disabled")
			return out, nil
		}
		shared := microsoft.NewSharedState(tenantID, clientID, clientSecret)
		conn, err := microsoft.NewConnector(domain, shared, dl, nil, microsoft.ImapConfig{})
		if err != nil {
			return nil, fmt.Errorf("build microsoft connector: %w", err)
		}
		out = append(out, conn)
	}

	return out, nil
}

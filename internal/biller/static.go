package biller

import "context"

// StaticSiteResolver serves site configuration from a fixed map, for dev mode
// and tests where no config service is deployed.
type StaticSiteResolver struct {
	sites map[string]*Site
}

// NewStaticSiteResolver creates a resolver over the given sites.
func NewStaticSiteResolver(sites map[string]*Site) *StaticSiteResolver {
	return &StaticSiteResolver{sites: sites}
}

// GetSite returns the configured site or ErrSiteNotFound.
func (r *StaticSiteResolver) GetSite(_ context.Context, siteID string) (*Site, error) {
	site, ok := r.sites[siteID]
	if !ok {
		return nil, ErrSiteNotFound
	}
	return site, nil
}

// StaticMappingResolver serves a fixed biller mapping per biller name.
type StaticMappingResolver struct {
	mappings map[string]*BillerMapping
}

// NewStaticMappingResolver creates a resolver over the given mappings.
// Unknown billers get a synthesized dev mapping rather than an error.
func NewStaticMappingResolver(mappings map[string]*BillerMapping) *StaticMappingResolver {
	if mappings == nil {
		mappings = make(map[string]*BillerMapping)
	}
	return &StaticMappingResolver{mappings: mappings}
}

// RetrieveBillerMapping returns the configured or synthesized mapping.
func (r *StaticMappingResolver) RetrieveBillerMapping(_ context.Context, billerName, _, siteID, _, _ string) (*BillerMapping, error) {
	if mapping, ok := r.mappings[billerName]; ok {
		return mapping, nil
	}
	return &BillerMapping{
		BillerName:      billerName,
		MerchantID:      "dev-merchant-" + billerName,
		MerchantAccount: "dev-account-" + siteID,
	}, nil
}

// NoRouting is a RoutingResolver that resolves nothing, for deployments
// without a bin-routing service.
type NoRouting struct{}

// Lookup returns an empty collection.
func (NoRouting) Lookup(_ context.Context, _ BinRoutingRequest) (BinRoutingCollection, error) {
	return BinRoutingCollection{}, nil
}

package zonesync

import (
	"context"
	"fmt"
)

// ZoneClient is the boundary to one authoritative DNS service. List returns
// the live record set of a zone; Apply submits one change batch and blocks
// until the service has committed it. Retry and backoff policy, if any,
// belongs to the implementation, not to the callers.
type ZoneClient interface {
	List(ctx context.Context, zone string) (*ZoneSnapshot, error)
	Apply(ctx context.Context, zone string, batch Batch) error
}

// NewZoneClient builds a client from one provider entry of the config file.
func NewZoneClient(ctx context.Context, info map[string]string) (ZoneClient, error) {
	providerType, ok := info["Type"]
	if !ok {
		return nil, &ConfigError{Reason: "provider entry without Type"}
	}
	switch providerType {
	case "Route53":
		return NewRoute53Client(ctx, info)
	case "GoogleCloud":
		return NewGoogleClient(info)
	case "Cloudflare":
		return NewCloudflareClient(info)
	case "Huawei":
		return NewHuaweiClient(info)
	case "RFC2136":
		return NewRfc2136Client(info)
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown provider type %q", providerType)}
	}
}

package daemon

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

const dialProbeTimeout = 5 * time.Second

// TestConnectivity is a best-effort reachability probe: a TCP dial against
// the remote's host plus a remote ref listing. It is used only for diagnostic
// logging and never gates whether a sync attempt is made.
func (d *Daemon) TestConnectivity(ctx context.Context, remoteURL string) bool {
	endpoint, err := transport.NewEndpoint(remoteURL)
	if err != nil {
		d.logger.Debug("cannot parse remote url for probe", "url", remoteURL, "error", err.Error())
		return false
	}

	// Local (file://, plain path) remotes have no host to dial.
	if endpoint.Host != "" {
		addr := net.JoinHostPort(endpoint.Host, strconv.Itoa(probePort(endpoint)))
		dialer := net.Dialer{Timeout: dialProbeTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			d.logger.Debug("remote host not reachable", "addr", addr, "error", err.Error())
			return false
		}
		conn.Close()
	}

	if err := d.backend.LsRemote(ctx, d.cfg.RepoPath, remoteURL); err != nil {
		d.logger.Debug("remote listing failed", "url", remoteURL, "error", err.Error())
		return false
	}
	return true
}

func probePort(endpoint *transport.Endpoint) int {
	if endpoint.Port > 0 {
		return endpoint.Port
	}
	switch endpoint.Protocol {
	case "ssh":
		return 22
	case "http":
		return 80
	case "git":
		return 9418
	default:
		return 443
	}
}

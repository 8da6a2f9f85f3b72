package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

const maxLogoSize = 10 << 20

var (
	ErrUnsupportedLogo  = errors.New("unsupported logo source")
	ErrForbiddenAddress = errors.New("logo host resolves to a non-public address")
)

// LogoLoader fetches logo images from remote URLs, data URIs or the local upload and public directories.
type LogoLoader struct {
	Client    *http.Client
	UploadDir string
	PublicDir string
}

type logo struct {
	data      []byte
	imageType string
}

// NewLogoLoader returns a loader whose client only dials public unicast addresses.
// The check runs on the resolved address, after redirects too, so DNS names
// pointing at internal hosts are refused as well.
func NewLogoLoader(uploadDir, publicDir string, timeout time.Duration) *LogoLoader {
	dialer := &net.Dialer{Timeout: timeout, Control: publicOnly}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &LogoLoader{
		Client:    &http.Client{Timeout: timeout, Transport: transport},
		UploadDir: uploadDir,
		PublicDir: publicDir,
	}
}

func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	ip = ip.Unmap()
	if !ip.IsGlobalUnicast() || ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, ip)
	}
	return nil
}

func (l *LogoLoader) load(ctx context.Context, src string) (*logo, error) {
	data, err := l.read(ctx, src)
	if err != nil {
		return nil, err
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var imageType string
	switch format {
	case "png":
		imageType = "PNG"
	case "jpeg":
		imageType = "JPG"
	case "gif":
		imageType = "GIF"
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	return &logo{data: data, imageType: imageType}, nil
}

func (l *LogoLoader) read(ctx context.Context, src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return l.fetch(ctx, src)
	case strings.HasPrefix(src, "data:"):
		return decodeDataURI(src)
	case strings.HasPrefix(src, "/api/uploads/"):
		return readLocal(l.UploadDir, strings.TrimPrefix(src, "/api/uploads/"))
	case strings.HasPrefix(src, "/uploads/"):
		return readLocal(l.UploadDir, strings.TrimPrefix(src, "/uploads/"))
	case strings.HasPrefix(src, "/public/"):
		return readLocal(l.PublicDir, strings.TrimPrefix(src, "/public/"))
	}
	return nil, ErrUnsupportedLogo
}

func (l *LogoLoader) fetch(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", src, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxLogoSize))
}

func decodeDataURI(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	s, err := url.PathUnescape(payload)
	return []byte(s), err
}

func readLocal(dir, rel string) ([]byte, error) {
	if dir == "" {
		return nil, ErrUnsupportedLogo
	}
	rel, err := url.PathUnescape(rel)
	if err != nil {
		return nil, err
	}
	// path.Clean on a rooted path cannot climb above dir
	name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+rel)))
	return os.ReadFile(name)
}

package devbackend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"gopkg.in/yaml.v3"

	"github.com/netmagis/netmagis-ui/internal/config"
)

// ErrBundleNotFound is returned when no bundle exists for a language.
var ErrBundleNotFound = errors.New("devbackend: bundle not found")

// bundleExts are tried in order.
var bundleExts = []string{".json", ".yaml", ".yml"}

// BundleSource loads translation bundles by language code.
type BundleSource interface {
	Bundle(ctx context.Context, lang string) (map[string]string, error)
}

// DirSource reads <lang>.json, <lang>.yaml or <lang>.yml from a directory.
type DirSource struct {
	dir string
}

// NewDirSource returns a source reading bundles from dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Bundle implements BundleSource.
func (d *DirSource) Bundle(ctx context.Context, lang string) (map[string]string, error) {
	if !validLang(lang) {
		return nil, ErrBundleNotFound
	}
	for _, ext := range bundleExts {
		name := filepath.Join(d.dir, lang+ext)
		data, err := os.ReadFile(name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("devbackend: read %s: %w", name, err)
		}
		return decodeBundle(name, data)
	}
	return nil, ErrBundleNotFound
}

// ObjectGetter is the subset of *s3.Client used by S3Source.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads bundles from objects named <prefix><lang>.json (or .yaml).
type S3Source struct {
	client ObjectGetter
	bucket string
	prefix string
}

// NewS3Source returns a source reading from bucket under prefix.
func NewS3Source(client ObjectGetter, bucket, prefix string) *S3Source {
	return &S3Source{client: client, bucket: bucket, prefix: prefix}
}

// NewS3Client builds an S3 client from configuration. Credentials come
// from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY when set; the bucket is
// read anonymously otherwise.
func NewS3Client(cfg config.S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.PathStyle,
		Credentials:  envCredentials(),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func envCredentials() aws.CredentialsProvider {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.AnonymousCredentials{}
	}
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "Environment",
		}, nil
	})
}

// Bundle implements BundleSource.
func (s *S3Source) Bundle(ctx context.Context, lang string) (map[string]string, error) {
	if !validLang(lang) {
		return nil, ErrBundleNotFound
	}
	for _, ext := range bundleExts {
		key := s.prefix + lang + ext
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var nsk *types.NoSuchKey
			if errors.As(err, &nsk) {
				continue
			}
			return nil, fmt.Errorf("devbackend: get s3://%s/%s: %w", s.bucket, key, err)
		}
		data, err := io.ReadAll(out.Body)
		out.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("devbackend: read s3://%s/%s: %w", s.bucket, key, err)
		}
		return decodeBundle(key, data)
	}
	return nil, ErrBundleNotFound
}

// NewBundleSource selects S3 when a bucket is configured and the
// directory otherwise.
func NewBundleSource(cfg config.BundlesConfig) BundleSource {
	if cfg.S3.Bucket != "" {
		return NewS3Source(NewS3Client(cfg.S3), cfg.S3.Bucket, cfg.S3.Prefix)
	}
	return NewDirSource(cfg.Dir)
}

// decodeBundle parses JSON or YAML by extension. Nested maps are
// flattened into dotted keys.
func decodeBundle(name string, data []byte) (map[string]string, error) {
	var raw map[string]any
	var err error
	switch path.Ext(name) {
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("devbackend: decode %s: %w", name, err)
	}
	out := make(map[string]string, len(raw))
	flatten("", raw, out)
	return out, nil
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := in[k].(type) {
		case map[string]any:
			flatten(key, v, out)
		case string:
			out[key] = v
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}

func validLang(lang string) bool {
	if lang == "" || len(lang) > 16 {
		return false
	}
	return strings.IndexFunc(lang, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-')
	}) < 0
}

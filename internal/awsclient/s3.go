// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package awsclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"go.opentelemetry.io/otel/trace"
)

type S3Client struct {
	Client *s3.Client
	Tracer trace.Tracer
}

// Settings shapes one S3 client. It covers AWS S3 itself, S3-compatible
// stores such as MinIO, and the GCS interoperability endpoint.
type Settings struct {
	Region      string
	Endpoint    string // MinIO, Ceph, storage.googleapis.com
	RoleARN     string // empty = ambient credentials
	PathStyle   bool
	InsecureTLS bool
	GCP         bool
}

func (st Settings) configure(cfg *aws.Config) {
	if st.Region != "" {
		cfg.Region = st.Region
	}
	if st.InsecureTLS {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		cfg.HTTPClient = &http.Client{Transport: tr}
	}
	if st.GCP {
		// GCS may decompress .gz objects in flight, so the bytes received
		// do not match a checksum computed over the stored object.
		cfg.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		cfg.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	}
}

func (st Settings) clientOptions() []func(*s3.Options) {
	var fns []func(*s3.Options)
	if st.Endpoint != "" {
		endpoint := st.Endpoint
		fns = append(fns, func(o *s3.Options) { o.BaseEndpoint = aws.String(endpoint) })
	}
	if st.PathStyle {
		fns = append(fns, func(o *s3.Options) { o.UsePathStyle = true })
	}
	if st.GCP {
		fns = append(fns, signForGCS)
	}
	return fns
}

// GCS rejects SigV4 signatures that cover Accept-Encoding, so the header is
// hidden from the signer and put back once the request is signed.
const acceptEncodingHeader = "Accept-Encoding"

type stashedAcceptEncoding struct{}

func smithyRequest(in middleware.FinalizeInput) (*smithyhttp.Request, error) {
	req, ok := in.Request.(*smithyhttp.Request)
	if !ok {
		return nil, &v4.SigningError{Err: fmt.Errorf("unexpected request middleware type %T", in.Request)}
	}
	return req, nil
}

var stripAcceptEncoding = middleware.FinalizeMiddlewareFunc("songlake.StripAcceptEncoding",
	func(ctx context.Context, in middleware.FinalizeInput, next middleware.FinalizeHandler) (middleware.FinalizeOutput, middleware.Metadata, error) {
		req, err := smithyRequest(in)
		if err != nil {
			return middleware.FinalizeOutput{}, middleware.Metadata{}, err
		}
		ctx = middleware.WithStackValue(ctx, stashedAcceptEncoding{}, req.Header.Get(acceptEncodingHeader))
		req.Header.Del(acceptEncodingHeader)
		return next.HandleFinalize(ctx, in)
	},
)

var restoreAcceptEncoding = middleware.FinalizeMiddlewareFunc("songlake.RestoreAcceptEncoding",
	func(ctx context.Context, in middleware.FinalizeInput, next middleware.FinalizeHandler) (middleware.FinalizeOutput, middleware.Metadata, error) {
		req, err := smithyRequest(in)
		if err != nil {
			return middleware.FinalizeOutput{}, middleware.Metadata{}, err
		}
		if ae, _ := middleware.GetStackValue(ctx, stashedAcceptEncoding{}).(string); ae != "" {
			req.Header.Set(acceptEncodingHeader, ae)
		}
		return next.HandleFinalize(ctx, in)
	},
)

func signForGCS(o *s3.Options) {
	o.APIOptions = append(o.APIOptions, func(stack *middleware.Stack) error {
		if err := stack.Finalize.Insert(stripAcceptEncoding, "Signing", middleware.Before); err != nil {
			return err
		}
		return stack.Finalize.Insert(restoreAcceptEncoding, "Signing", middleware.After)
	})
}

type roleKey struct {
	Region  string
	RoleARN string
}

// credentials returns the cached provider for region and role, creating an
// assume-role provider on first use.
func (m *Manager) credentials(region, roleARN string) aws.CredentialsProvider {
	key := roleKey{Region: region, RoleARN: roleARN}
	m.RLock()
	provider, ok := m.providers[key]
	m.RUnlock()
	if ok {
		return provider
	}

	m.Lock()
	defer m.Unlock()
	if provider, ok = m.providers[key]; ok {
		return provider
	}
	if roleARN == "" {
		provider = m.baseCfg.Credentials
	} else {
		p := stscreds.NewAssumeRoleProvider(m.stsClient, roleARN, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = m.sessionName
		})
		provider = aws.NewCredentialsCache(p)
	}
	m.providers[key] = provider
	return provider
}

// GetS3 returns a client for st. Credentials are shared between clients
// with the same region and role.
func (m *Manager) GetS3(_ context.Context, st Settings) (*S3Client, error) {
	cfg := m.baseCfg.Copy()
	st.configure(&cfg)
	if cfg.Region == "" {
		return nil, fmt.Errorf("no AWS region configured")
	}
	cfg.Credentials = m.credentials(cfg.Region, st.RoleARN)

	client := s3.NewFromConfig(cfg, st.clientOptions()...)
	return &S3Client{Client: client, Tracer: m.tracer}, nil
}

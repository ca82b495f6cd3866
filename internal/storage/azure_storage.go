package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	apperrors "go-focus-evaluator/internal/errors"
)

// AzureFetcher downloads stacks addressed as az://<container>/<blob>
type AzureFetcher struct {
	client *azblob.Client
}

// NewAzureFetcher authenticates with an account name and shared key
func NewAzureFetcher(accountName string, accountKey string) (*AzureFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid Azure shared key", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create Azure client", err)
	}

	return &AzureFetcher{client: client}, nil
}

// NewAzureFetcherFromConnectionString authenticates with a connection string
func NewAzureFetcherFromConnectionString(connectionString string) (*AzureFetcher, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid Azure connection string", err)
	}
	return &AzureFetcher{client: client}, nil
}

// ParseBlobURI splits az://container/path/to/blob
func ParseBlobURI(uri string) (container, blob string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", apperrors.NewValidationError("invalid blob URI", err)
	}
	if u.Scheme != "az" {
		return "", "", apperrors.NewValidationError(fmt.Sprintf("blob URI must use az:// (got %q)", uri), nil)
	}
	container = u.Host
	blob = strings.TrimPrefix(u.Path, "/")
	if container == "" || blob == "" {
		return "", "", apperrors.NewValidationError(
			fmt.Sprintf("blob URI %q needs both container and blob name", uri), nil)
	}
	return container, blob, nil
}

func (s *AzureFetcher) Fetch(ctx context.Context, uri string) (*Object, error) {
	containerName, blobName, err := ParseBlobURI(uri)
	if err != nil {
		return nil, err
	}

	// Download blob to stream
	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("blob download failed", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	data, err := io.ReadAll(retryReader)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read blob", err)
	}

	obj := &Object{Name: path.Base(blobName), Data: data}
	if downloadResponse.ContentType != nil {
		obj.ContentType = *downloadResponse.ContentType
	}
	return obj, nil
}

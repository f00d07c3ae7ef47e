package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/pkg/sharepoint"
	"go.uber.org/zap"
)

type VersionStrategy string

const (
	StrategyUpdateByID      VersionStrategy = "update_by_id"
	StrategyPathLookup      VersionStrategy = "path_lookup"
	StrategyCreateOrReplace VersionStrategy = "create_or_replace"
	StrategyObjectStore     VersionStrategy = "object_store"
)

type StoredObject struct {
	Bucket string
	Key    string
	Size   int64
}

// ObjectStore keeps version content when SharePoint cannot take it.
type ObjectStore interface {
	Put(ctx context.Context, directory, fileName string, r io.Reader, size int64, contentType string) (StoredObject, error)
}

// VersionTarget locates the SharePoint item a new version replaces.
type VersionTarget struct {
	Credentials     sharepoint.Credentials
	SiteURL         string
	DocumentLibrary string
	FolderPath      string
	// DriveID and ItemID come from the document's primary upload and may be empty.
	DriveID string
	ItemID  string
	// ObjectDirectory is where the object store fallback writes the file.
	ObjectDirectory string
}

type VersionResult struct {
	StorageProvider constant.StorageProvider
	Strategy        VersionStrategy
	DriveID         string
	Item            *sharepoint.DriveItem
	Object          *StoredObject
	TokenSource     sharepoint.TokenSource
}

type VersionUploader struct {
	graph   VersionGraphClient
	tokens  sharepoint.TokenProvider
	store   ObjectStore
	metrics Recorder
	logger  *zap.SugaredLogger
}

// NewVersionUploader builds the uploader. store may be nil, in which case the
// object store fallback is reported as an error instead.
func NewVersionUploader(graph VersionGraphClient, tokens sharepoint.TokenProvider, store ObjectStore, metrics Recorder, logger *zap.SugaredLogger) *VersionUploader {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &VersionUploader{graph: graph, tokens: tokens, store: store, metrics: metrics, logger: logger}
}

// Upload replaces the content of the document's SharePoint item. It tries the stored
// item id, then a lookup by path, then a create with conflictBehavior=replace. When
// Graph is unreachable or the token is a local dev or emergency placeholder the file
// goes to the object store instead.
func (u *VersionUploader) Upload(ctx context.Context, target VersionTarget, file File) (VersionResult, error) {
	tok, err := u.tokens.Token(ctx, target.Credentials)
	if err != nil {
		if sharepoint.IsNetworkError(err) {
			return u.toObjectStore(ctx, target, file, "", err)
		}
		return VersionResult{}, err
	}
	if !tok.IsIssued() {
		u.metrics.RecordTokenFallback(string(tok.Source))
	}
	if tok.IsLocal() {
		return u.toObjectStore(ctx, target, file, tok.Source, nil)
	}

	result, err := u.toSharePoint(ctx, tok.AccessToken, target, file)
	if err != nil {
		if sharepoint.IsNetworkError(err) {
			return u.toObjectStore(ctx, target, file, tok.Source, err)
		}
		return VersionResult{}, err
	}
	result.TokenSource = tok.Source
	return result, nil
}

func (u *VersionUploader) toSharePoint(ctx context.Context, token string, target VersionTarget, file File) (VersionResult, error) {
	driveID := target.DriveID
	if driveID == "" {
		site, err := u.graph.GetSite(ctx, token, target.SiteURL)
		if err != nil {
			return VersionResult{}, fmt.Errorf("failed to resolve site: %w", err)
		}
		drives, err := u.graph.ListDrives(ctx, token, site.ID)
		if err != nil {
			return VersionResult{}, fmt.Errorf("failed to list document libraries: %w", err)
		}
		drive, err := sharepoint.ResolveLibrary(drives, target.DocumentLibrary)
		if err != nil {
			return VersionResult{}, err
		}
		driveID = drive.ID
	}

	ok := func(item *sharepoint.DriveItem, strategy VersionStrategy) (VersionResult, error) {
		return VersionResult{
			StorageProvider: constant.StorageProviderSharePoint,
			Strategy:        strategy,
			DriveID:         driveID,
			Item:            item,
		}, nil
	}

	if target.ItemID != "" {
		item, err := u.graph.UpdateContentByID(ctx, token, driveID, target.ItemID, bytes.NewReader(file.Content), file.Size(), file.ContentType)
		if err == nil {
			return ok(item, StrategyUpdateByID)
		}
		if sharepoint.IsNetworkError(err) {
			return VersionResult{}, err
		}
		u.logger.Warnf("Update of item %s by id failed, trying path lookup: %v", target.ItemID, err)
	}

	itemPath := sharepoint.JoinItemPath(target.FolderPath, file.Name)

	existing, err := u.graph.GetItemByPath(ctx, token, driveID, itemPath)
	switch {
	case err == nil:
		item, updateErr := u.graph.UpdateContentByID(ctx, token, driveID, existing.ID, bytes.NewReader(file.Content), file.Size(), file.ContentType)
		if updateErr == nil {
			return ok(item, StrategyPathLookup)
		}
		if sharepoint.IsNetworkError(updateErr) {
			return VersionResult{}, updateErr
		}
		u.logger.Warnf("Update of item %s found at %s failed, creating instead: %v", existing.ID, itemPath, updateErr)
	case sharepoint.IsNetworkError(err):
		return VersionResult{}, err
	case !sharepoint.IsNotFound(err):
		u.logger.Warnf("Lookup of %s failed, creating instead: %v", itemPath, err)
	}

	item, err := u.graph.CreateOrReplace(ctx, token, driveID, itemPath, bytes.NewReader(file.Content), file.Size(), file.ContentType)
	if err != nil {
		return VersionResult{}, fmt.Errorf("failed to upload new version: %w", err)
	}
	return ok(item, StrategyCreateOrReplace)
}

func (u *VersionUploader) toObjectStore(ctx context.Context, target VersionTarget, file File, source sharepoint.TokenSource, cause error) (VersionResult, error) {
	if u.store == nil {
		if cause != nil {
			return VersionResult{}, errors.Join(ErrObjectStoreDisabled, cause)
		}
		return VersionResult{}, ErrObjectStoreDisabled
	}

	if cause != nil {
		u.logger.Warnf("SharePoint unreachable, storing %s in object storage: %v", file.Name, cause)
	} else {
		u.logger.Infof("Token source %s cannot reach SharePoint, storing %s in object storage", source, file.Name)
	}

	obj, err := u.store.Put(ctx, target.ObjectDirectory, file.Name, bytes.NewReader(file.Content), file.Size(), file.ContentType)
	if err != nil {
		return VersionResult{}, fmt.Errorf("failed to store version in object storage: %w", err)
	}

	return VersionResult{
		StorageProvider: constant.StorageProviderObjectStore,
		Strategy:        StrategyObjectStore,
		Object:          &obj,
		TokenSource:     source,
	}, nil
}

package workers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/APTrust/integrity-services/baseline"
	"github.com/APTrust/integrity-services/constants"
	"github.com/APTrust/integrity-services/fixity"
	"github.com/APTrust/integrity-services/models/common"
	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/APTrust/integrity-services/source"
)

// BaselineAcceptor digests the artifacts as they are now and saves
// the result as the new trusted baseline. Run it only on a host you
// know to be clean.
type BaselineAcceptor struct {
	Context   *common.Context
	Artifacts []integrity.Artifact
	Source    source.Source
	Engine    *fixity.Engine
}

func NewBaselineAcceptor(context *common.Context) (*BaselineAcceptor, error) {
	artifacts, err := LoadArtifacts(context.Config)
	if err != nil {
		return nil, err
	}
	src, err := NewSource(context)
	if err != nil {
		return nil, err
	}
	return &BaselineAcceptor{
		Context:   context,
		Artifacts: artifacts,
		Source:    src,
		Engine:    fixity.NewSha256Engine(),
	}, nil
}

// Compute returns a baseline store holding the current digest of
// every present artifact. Absent artifacts are left out.
func (a *BaselineAcceptor) Compute(ctx context.Context) (*baseline.Store, error) {
	store := baseline.NewStore(baseline.StaticLoader{}, a.Artifacts)
	for _, artifact := range a.Artifacts {
		reader, err := a.Source.Open(ctx, artifact.Identifier)
		if errors.Is(err, source.ErrAbsent) {
			a.Context.Logger.Warningf("Skipping absent artifact %s", artifact.Identifier)
			continue
		}
		if err != nil {
			return nil, err
		}
		digest, err := a.Engine.Digest(ctx, reader)
		reader.Close()
		if err != nil {
			return nil, fmt.Errorf("Cannot digest %s: %w", artifact.Identifier, err)
		}
		if err = store.Accept(artifact.Identifier, digest); err != nil {
			return nil, err
		}
		a.Context.Logger.Infof("Accepted %s %s", digest, artifact.Identifier)
	}
	return store, nil
}

// Run computes the baseline and saves it where BASELINE_SOURCE says
// the monitor will look for it. For manifests, outputFile overrides
// BASELINE_MANIFEST, and "-" writes to stdout. Run returns the
// manifest's sha256, which is the value for BASELINE_MANIFEST_SHA256.
// For Redis baselines the sha256 is empty.
func (a *BaselineAcceptor) Run(ctx context.Context, outputFile string, stdout io.Writer) (string, error) {
	store, err := a.Compute(ctx)
	if err != nil {
		return "", err
	}
	digests := store.Snapshot()
	config := a.Context.Config
	if config.BaselineSource == constants.BaselineSourceRedis && outputFile == "" {
		if a.Context.RedisClient == nil {
			return "", fmt.Errorf("BASELINE_SOURCE is redis but there is no Redis client")
		}
		if err = baseline.NewRedisLoader(a.Context.RedisClient, config.RedisBaselineKey).Save(digests); err != nil {
			return "", err
		}
		a.Context.Logger.Infof("Saved %d digests to Redis hash %s", len(digests), config.RedisBaselineKey)
		return "", nil
	}

	buf := &bytes.Buffer{}
	if err = baseline.WriteManifest(buf, digests); err != nil {
		return "", err
	}
	manifestSha256, err := a.Engine.Digest(ctx, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", err
	}
	if outputFile == "" {
		outputFile = config.BaselineManifest
	}
	if outputFile == "-" {
		if _, err = stdout.Write(buf.Bytes()); err != nil {
			return "", err
		}
	} else {
		if err = writeFileAtomic(outputFile, buf.Bytes()); err != nil {
			return "", err
		}
		a.Context.Logger.Infof("Wrote %d digests to %s", len(digests), outputFile)
	}
	a.Context.Logger.Infof("Pin this baseline with BASELINE_MANIFEST_SHA256=%s", manifestSha256)
	return manifestSha256, nil
}

// writeFileAtomic writes data to a temp file beside pathToFile and
// renames it into place, so the monitor never reads half a manifest.
func writeFileAtomic(pathToFile string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(pathToFile), ".manifest-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), pathToFile)
}

package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/APTrust/integrity-services/fixity"
	"github.com/APTrust/integrity-services/models/common"
	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/APTrust/integrity-services/source"
	"github.com/op/go-logging"
)

// BaselineReader is the read side of a baseline store.
type BaselineReader interface {
	Get(identifier string) (string, bool)
}

// Scanner runs one pass over the monitored artifacts, comparing the
// digest of each one's content with its baseline.
type Scanner struct {
	Source     source.Source
	Engine     *fixity.Engine
	Classifier *Classifier

	// Strict turns a present artifact with no baseline entry into a
	// violation with an empty Expected digest. When Strict is off,
	// such artifacts are counted in SweepResult.Unbaselined and
	// otherwise ignored.
	Strict bool

	Logger *logging.Logger
}

func NewScanner(src source.Source, engine *fixity.Engine, classifier *Classifier, strict bool, logger *logging.Logger) *Scanner {
	return &Scanner{
		Source:     src,
		Engine:     engine,
		Classifier: classifier,
		Strict:     strict,
		Logger:     logger,
	}
}

// Scan checks artifacts in order and returns the sweep result with
// violations in artifact order. Absent artifacts are skipped. The
// first read failure aborts the sweep: the returned error is a
// *common.Error and the partial result is returned alongside it so
// callers can log how far the sweep got.
func (s *Scanner) Scan(ctx context.Context, artifacts []integrity.Artifact, baseline BaselineReader) (*integrity.SweepResult, error) {
	result := integrity.NewSweepResult()
	result.Start()
	for _, artifact := range artifacts {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		actual, err := s.digest(ctx, artifact.Identifier)
		if errors.Is(err, source.ErrAbsent) {
			result.Absent++
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			message := fmt.Sprintf("Sweep %s failed reading %s from %s",
				result.SweepID, artifact.Identifier, s.Source.Name())
			return result, common.NewError(message, err, false)
		}
		result.Checked++
		expected, baselined := baseline.Get(artifact.Identifier)
		if !baselined {
			result.Unbaselined++
			if !s.Strict {
				continue
			}
			expected = ""
		} else if expected == actual {
			continue
		}
		violation := integrity.NewViolation(artifact.Identifier, expected, actual,
			s.Classifier.Classify(artifact.Identifier))
		if s.Logger != nil {
			s.Logger.Warningf("Sweep %s: %s", result.SweepID, violation.String())
		}
		result.AddViolation(violation)
	}
	result.Finish()
	return result, nil
}

func (s *Scanner) digest(ctx context.Context, identifier string) (string, error) {
	reader, err := s.Source.Open(ctx, identifier)
	if err != nil {
		return "", err
	}
	defer reader.Close()
	return s.Engine.Digest(ctx, reader)
}

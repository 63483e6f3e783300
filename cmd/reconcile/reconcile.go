package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"templatehub/application/services"
)

type mirror interface {
	Verify(ctx context.Context, spec services.MirrorSpec, id string) (*services.DriftReport, error)
	Scan(ctx context.Context, spec services.MirrorSpec, pageSize int64) ([]services.DriftReport, error)
	Reconcile(ctx context.Context, spec services.MirrorSpec, report services.DriftReport) (string, error)
}

type options struct {
	entity   string
	id       string
	all      bool
	repair   bool
	pageSize int64
}

var specs = map[string]services.MirrorSpec{
	"project":  services.ProjectMirror,
	"template": services.TemplateMirror,
}

func (o options) validate() (services.MirrorSpec, error) {
	spec, ok := specs[o.entity]
	if !ok {
		return services.MirrorSpec{}, fmt.Errorf("--entity must be project or template, got %q", o.entity)
	}
	if (o.id == "") == !o.all {
		return services.MirrorSpec{}, errors.New("exactly one of --id or --all is required")
	}
	return spec, nil
}

// reconcile prints one line per drift report, repairing each when asked,
// and returns the number of reports found.
func reconcile(ctx context.Context, m mirror, spec services.MirrorSpec, opts options, out io.Writer) (int, error) {
	var reports []services.DriftReport
	if opts.all {
		found, err := m.Scan(ctx, spec, opts.pageSize)
		if err != nil {
			return 0, err
		}
		reports = found
	} else {
		found, err := m.Verify(ctx, spec, opts.id)
		if err != nil {
			return 0, err
		}
		if found != nil {
			reports = append(reports, *found)
		}
	}

	if len(reports) == 0 {
		fmt.Fprintf(out, "%s: no drift\n", spec.Entity)
		return 0, nil
	}

	var failed int
	for _, r := range reports {
		line := fmt.Sprintf("%s %s %s", r.Entity, r.RecordID, r.Kind)
		if r.Detail != "" {
			line += " (" + r.Detail + ")"
		}
		if opts.repair {
			action, err := m.Reconcile(ctx, spec, r)
			if err != nil {
				failed++
				line += " repair failed: " + err.Error()
			} else {
				line += " -> " + action
			}
		}
		fmt.Fprintln(out, line)
	}

	if failed > 0 {
		return len(reports), fmt.Errorf("%d of %d repairs failed", failed, len(reports))
	}
	return len(reports), nil
}

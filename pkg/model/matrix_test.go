/*
 * Copyright © 2026 Fogtools
 *
 */

package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstanceName(t *testing.T) {
	m := Matrix{Platforms: []Platform{"linux"}}
	require.Equal(t, "fogtesting-linux", m.InstanceName("linux"))

	m.InstancePrefix = "qa-"
	require.Equal(t, "qa-linux", m.InstanceName("linux"))
}

func TestSnapshotName(t *testing.T) {
	m := Matrix{Platforms: []Platform{"linux"}}
	require.Equal(t, "linux-clean", m.SnapshotName("linux"))

	m.SnapshotSuffix = "-golden"
	require.Equal(t, "linux-golden", m.SnapshotName("linux"))
}

func TestCells(t *testing.T) {
	m := Matrix{
		Branches:  []Branch{"master", "wip"},
		Platforms: []Platform{"linux", "windows", "smartos"},
	}
	require.Equal(t, 6, m.Cells())

	require.Equal(t, 0, Matrix{Branches: []Branch{"master"}}.Cells())
	require.Equal(t, 0, Matrix{Platforms: []Platform{"linux"}}.Cells())
}

func TestValidateMatrix(t *testing.T) {
	type args struct {
		matrix Matrix
	}
	tests := []struct {
		name    string
		args    args
		wantErr bool
	}{
		{
			name: "success",
			args: args{
				matrix: Matrix{
					Branches:  []Branch{"master", "feature/atomic-copy"},
					Platforms: []Platform{"linux", "windows"},
				},
			},
			wantErr: false,
		},
		{
			name: "success single cell",
			args: args{
				matrix: Matrix{
					Branches:  []Branch{"master"},
					Platforms: []Platform{"linux"},
				},
			},
			wantErr: false,
		},
		{
			// an empty axis is a valid no-op plan
			name: "success no branches",
			args: args{
				matrix: Matrix{
					Platforms: []Platform{"linux"},
				},
			},
			wantErr: false,
		},
		{
			name: "success no platforms",
			args: args{
				matrix: Matrix{
					Branches: []Branch{"master"},
				},
			},
			wantErr: false,
		},
		{
			name: "fail empty branch",
			args: args{
				matrix: Matrix{
					Branches:  []Branch{""},
					Platforms: []Platform{"linux"},
				},
			},
			wantErr: true,
		},
		{
			name: "fail empty platform",
			args: args{
				matrix: Matrix{
					Branches:  []Branch{"master"},
					Platforms: []Platform{""},
				},
			},
			wantErr: true,
		},
		{
			name: "fail wildcard branch",
			args: args{
				matrix: Matrix{
					Branches:  []Branch{"release/*"},
					Platforms: []Platform{"linux"},
				},
			},
			wantErr: true,
		},
		{
			name: "fail wildcard platform",
			args: args{
				matrix: Matrix{
					Branches:  []Branch{"master"},
					Platforms: []Platform{"linux?"},
				},
			},
			wantErr: true,
		},
		{
			name: "fail slash in platform",
			args: args{
				matrix: Matrix{
					Branches:  []Branch{"master"},
					Platforms: []Platform{"linux/arm"},
				},
			},
			wantErr: true,
		},
		{
			name: "fail duplicate branch",
			args: args{
				matrix: Matrix{
					Branches:  []Branch{"master", "master"},
					Platforms: []Platform{"linux"},
				},
			},
			wantErr: true,
		},
		{
			name: "fail duplicate platform",
			args: args{
				matrix: Matrix{
					Branches:  []Branch{"master"},
					Platforms: []Platform{"linux", "windows", "linux"},
				},
			},
			wantErr: true,
		},
	}
	for _, tts := range tests {
		tt := tts
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.args.matrix.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Matrix.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMatrixSentinel(t *testing.T) {
	m := Matrix{
		Branches:  []Branch{"rel*"},
		Platforms: []Platform{"linux"},
	}
	err := m.Validate()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidName)
}

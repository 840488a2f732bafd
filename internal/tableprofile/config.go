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

package tableprofile

// Config controls how a table is split and scanned.
type Config struct {
	// Workers bounds the number of partitions scanned at once.
	Workers int `mapstructure:"workers"`
	// BatchSize is the number of rows read at a time and the interval at
	// which a scan checks for cancellation.
	BatchSize int `mapstructure:"batch_size"`
	// PartitionRows is the number of rows per partition when splitting a
	// file.
	PartitionRows int `mapstructure:"partition_rows"`
}

func DefaultConfig() Config {
	return Config{
		Workers:       4,
		BatchSize:     1000,
		PartitionRows: 100_000,
	}
}

// normalized replaces non-positive settings with their defaults.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.PartitionRows <= 0 {
		c.PartitionRows = def.PartitionRows
	}
	return c
}

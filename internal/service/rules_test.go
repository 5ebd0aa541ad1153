package service

import "testing"

func TestRewardForCount_TierTable(t *testing.T) {
	tests := []struct {
		count, want int
	}{
		{-3, 0},
		{0, 0},
		{1, 5},
		{2, 10},
		{3, 24}, // tier jump: the whole count is re-priced, not just the excess
		{5, 40},
		{6, 72},
		{10, 120},
		{11, 165},
		{12, 180},
		{20, 300},
		{21, 420},
		{50, 1000},
	}
	for _, tt := range tests {
		if got := RewardForCount(tt.count); got != tt.want {
			t.Errorf("RewardForCount(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestLevelForAffection_Bands(t *testing.T) {
	tests := []struct {
		affection, want int
	}{
		{0, 1},
		{19, 1},
		{20, 2},
		{39, 2},
		{40, 3},
		{45, 3},
		{59, 3},
		{60, 4},
		{79, 4},
		{80, 5},
		{100, 5},
	}
	for _, tt := range tests {
		if got := LevelForAffection(tt.affection); got != tt.want {
			t.Errorf("LevelForAffection(%d) = %d, want %d", tt.affection, got, tt.want)
		}
	}
}

func TestAffectionGain(t *testing.T) {
	tests := []struct {
		name          string
		amount, level int
		want          int
	}{
		{"default amount at level 1", 10, 1, 1},
		{"default amount at level 5", 10, 5, 1},
		{"large meal at level 1", 50, 1, 9},
		{"large meal at level 5", 50, 5, 9},
		{"tiny meal floors to minimum", 4, 1, 1},
		{"boundary meal", 5, 1, 1}, // floor(5/5) - 0.1 = 0.9, floored, then min 1
		{"level drag never starves", 5, 5, 1},
	}
	for _, tt := range tests {
		if got := affectionGain(tt.amount, tt.level); got != tt.want {
			t.Errorf("%s: affectionGain(%d, %d) = %d, want %d",
				tt.name, tt.amount, tt.level, got, tt.want)
		}
	}
}

func TestDiscoverCost_Floor(t *testing.T) {
	tests := []struct {
		threshold, want int
	}{
		{0, 10},
		{5, 10},
		{10, 10},
		{11, 11},
		{150, 150},
	}
	for _, tt := range tests {
		if got := discoverCost(tt.threshold); got != tt.want {
			t.Errorf("discoverCost(%d) = %d, want %d", tt.threshold, got, tt.want)
		}
	}
}

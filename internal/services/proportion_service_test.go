package services

import (
	"testing"

	"github.com/VerticalAgents/mischa-os-sub002/internal/models"
)

func TestSplitByProportionsStandardOrder(t *testing.T) {
	table := []models.ProportionSetting{
		{ProductName: "Cake", Percentage: 60},
		{ProductName: "Muffin", Percentage: 40},
	}

	split := SplitByProportions(table, 70)

	if split["Cake"] != 42 {
		t.Errorf("Cake: ожидали 42, получили %v", split["Cake"])
	}
	if split["Muffin"] != 28 {
		t.Errorf("Muffin: ожидали 28, получили %v", split["Muffin"])
	}
}

func TestSplitByProportionsNormalizesToSum(t *testing.T) {
	// Настройщики не добили до 100 — проценты нормализуются к своей сумме
	table := []models.ProportionSetting{
		{ProductName: "Cake", Percentage: 30},
		{ProductName: "Muffin", Percentage: 30},
	}

	split := SplitByProportions(table, 100)

	if split["Cake"] != 50 || split["Muffin"] != 50 {
		t.Errorf("ожидали 50/50 после нормализации, получили %v/%v", split["Cake"], split["Muffin"])
	}
}

func TestSplitByProportionsSkipsNonPositiveRows(t *testing.T) {
	table := []models.ProportionSetting{
		{ProductName: "Cake", Percentage: 100},
		{ProductName: "Muffin", Percentage: 0},
		{ProductName: "Brownie", Percentage: -5},
	}

	split := SplitByProportions(table, 40)

	if len(split) != 1 {
		t.Fatalf("строки с неположительным процентом должны игнорироваться: получили %d позиций", len(split))
	}
	if split["Cake"] != 40 {
		t.Errorf("Cake: ожидали 40, получили %v", split["Cake"])
	}
}

func TestSplitByProportionsEmptyInputs(t *testing.T) {
	if got := SplitByProportions(nil, 70); len(got) != 0 {
		t.Errorf("пустая таблица должна давать пустую раскладку, получили %v", got)
	}
	table := []models.ProportionSetting{{ProductName: "Cake", Percentage: 100}}
	if got := SplitByProportions(table, 0); len(got) != 0 {
		t.Errorf("нулевой объем должен давать пустую раскладку, получили %v", got)
	}
}

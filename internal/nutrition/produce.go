package nutrition

import (
	"strings"

	"nutrition-bot/internal/models"
)

var vegetableKeywords = []string{
	"broccoli", "spinach", "kale", "lettuce", "salad", "carrot", "tomato",
	"cucumber", "bell pepper", "onion", "zucchini", "cauliflower", "cabbage",
	"asparagus", "green bean", "peas", "celery", "mushroom", "eggplant",
	"brussels", "beet", "sweet potato", "squash", "arugula", "bok choy",
	"vegetable", "veggie", "greens", "edamame", "radish", "leek",
}

var fruitKeywords = []string{
	"apple", "banana", "orange", "berry", "berries", "grape", "mango",
	"pineapple", "peach", "pear", "kiwi", "melon", "cherry", "cherries",
	"plum", "apricot", "papaya", "pomegranate", "fig", "fruit",
	"avocado", "citrus", "tangerine", "clementine",
}

func containsAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// countProduce returns how many items mention a vegetable and how many
// mention a fruit. One item can count toward both.
func countProduce(items []models.MealItem) (vegetables, fruits int) {
	for _, it := range items {
		name := strings.ToLower(it.FoodName)
		if containsAny(name, vegetableKeywords) {
			vegetables++
		}
		if containsAny(name, fruitKeywords) {
			fruits++
		}
	}
	return vegetables, fruits
}

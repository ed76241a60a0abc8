package source

import "strings"

type categoryRule struct {
	category string
	keywords []string
}

// Rules are checked in order; the first keyword hit wins.
var categoryRules = []categoryRule{
	{"food_and_drink", []string{
		"restaurant", "mcdonald", "taco", "chipotle", "starbucks", "burger", "pizza",
		"wendy", "kfc", "popeyes", "panera", "dunkin", "domino", "chick-fil-a",
		"five guys", "shake shack", "doordash", "ubereats", "uber eats", "grubhub",
		"postmates", "cafe", "coffee", "sushi", "bbq", "grill",
	}},
	{"groceries", []string{
		"whole foods", "trader joe", "safeway", "kroger", "publix", "albertsons",
		"aldi", "costco", "sam's club", "wegmans", "heb", "meijer", "sprouts",
		"supermarket", "grocery", "farmers market",
	}},
	{"utilities", []string{
		"comcast", "xfinity", "verizon", "at&t", "pg&e", "electric", "water bill",
		"utility", "internet", "spectrum", "t-mobile", "duke energy", "edison",
		"wireless", "phone bill",
	}},
	{"travel", []string{
		"airline", "delta", "united", "american airlines", "southwest", "jetblue",
		"hotel", "marriott", "hilton", "hyatt", "airbnb", "vrbo", "hertz", "avis",
		"uber", "lyft", "taxi", "amtrak", "expedia", "booking.com", "parking",
		"shell", "chevron", "exxon", "mobil",
	}},
	{"entertainment", []string{
		"netflix", "hulu", "spotify", "disney+", "hbo", "youtube premium", "amc",
		"regal", "cinema", "theater", "theatre", "concert", "ticketmaster", "steam",
		"playstation", "xbox", "nintendo", "museum", "bowling",
	}},
	{"healthcare", []string{
		"pharmacy", "cvs", "walgreens", "clinic", "hospital", "dental", "doctor",
		"medical", "optometr",
	}},
	{"shopping", []string{
		"amazon", "target", "walmart", "best buy", "ikea", "etsy", "ebay", "nike",
		"apple store", "home depot", "lowe's", "macy",
	}},
	{"education", []string{
		"tuition", "university", "college", "coursera", "udemy", "bookstore",
	}},
}

// Categorize assigns a category from a merchant name by keyword match.
// Unknown or empty merchants map to "other".
func Categorize(vendor string) string {
	v := strings.ToLower(strings.TrimSpace(vendor))
	if v == "" {
		return "other"
	}
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(v, kw) {
				return rule.category
			}
		}
	}
	return "other"
}

package finpilot

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the pipeline: simulated latencies, the chat
// category table, the synthetic receipt catalog, provider catalogs and the
// daily-tip rotation. DefaultConfig returns the built-in tables; a YAML file
// overlays them field by field.
type Config struct {
	Latency   LatencyConfig   `yaml:"latency"`
	Chat      ChatConfig      `yaml:"chat"`
	Receipt   ReceiptConfig   `yaml:"receipt"`
	Providers ProvidersConfig `yaml:"providers"`
	Tips      TipsConfig      `yaml:"tips"`
}

// LatencyConfig sets the per-kind simulated resolution delay in
// milliseconds. Delays are fixed constants, not derived from input size.
type LatencyConfig struct {
	ChatMS    int `yaml:"chat_ms"`
	ReceiptMS int `yaml:"receipt_ms"`
	ConnectMS int `yaml:"connect_ms"`
}

func (c Config) ChatDelay() time.Duration    { return time.Duration(c.Latency.ChatMS) * time.Millisecond }
func (c Config) ReceiptDelay() time.Duration { return time.Duration(c.Latency.ReceiptMS) * time.Millisecond }
func (c Config) ConnectDelay() time.Duration { return time.Duration(c.Latency.ConnectMS) * time.Millisecond }

// ChatConfig is the keyword-category table, the general-advice fallback pool
// and the snapshot used when the caller supplies none.
type ChatConfig struct {
	Categories      []ChatCategory    `yaml:"categories"`
	General         []string          `yaml:"general"`
	DefaultSnapshot FinancialSnapshot `yaml:"default_snapshot"`
}

// ChatCategory maps a keyword set to a reply template. Categories are tested
// in table order; the first one with a matching keyword wins.
type ChatCategory struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Template string   `yaml:"template"`
}

// ReceiptConfig drives the synthetic receipt generator.
type ReceiptConfig struct {
	StoreNames  []string      `yaml:"store_names"`
	Catalog     []CatalogItem `yaml:"catalog"`
	Tax         string        `yaml:"tax"` // decimal string, e.g. "2.34"
	MinItems    int           `yaml:"min_items"`
	MaxItems    int           `yaml:"max_items"`
	MaxQuantity int           `yaml:"max_quantity"`
}

// CatalogItem is one purchasable entry in the synthetic catalog. UnitPrice
// is kept as a decimal string in config and parsed at generation time.
type CatalogItem struct {
	Name      string `yaml:"name"`
	UnitPrice string `yaml:"unit_price"`
}

// ProvidersConfig lists the connectable account sources per provider type.
type ProvidersConfig struct {
	Banks []ProviderEntry `yaml:"banks"`
	UPI   []ProviderEntry `yaml:"upi"`
	Cards []ProviderEntry `yaml:"cards"`
}

// ProviderEntry is a connectable institution and its external onboarding URL.
type ProviderEntry struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// ByType returns the catalog for one provider type.
func (p ProvidersConfig) ByType(t ProviderType) []ProviderEntry {
	switch t {
	case ProviderBank:
		return p.Banks
	case ProviderUPI:
		return p.UPI
	case ProviderCard:
		return p.Cards
	}
	return nil
}

// TipsConfig holds the daily financial tips and their rotation schedule.
type TipsConfig struct {
	Rotation string `yaml:"rotation"` // cron spec, e.g. "0 0 * * *"
	Tips     []Tip  `yaml:"tips"`
}

// Tip is one canned piece of financial wisdom.
type Tip struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// DefaultConfig returns the built-in tables: the chat category table in
// precedence order, the receipt catalog, provider catalogs and tips.
func DefaultConfig() Config {
	return Config{
		Latency: LatencyConfig{ChatMS: 1500, ReceiptMS: 3000, ConnectMS: 2000},
		Chat: ChatConfig{
			Categories: []ChatCategory{
				{
					Name:     "budget",
					Keywords: []string{"budget", "spending"},
					Template: "Your monthly spending is ₹{spending} against a balance of ₹{balance}, with {category} leading at ₹{category_amount}. I can draft a budget that trims the biggest categories first.",
				},
				{
					Name:     "savings",
					Keywords: []string{"save", "saving"},
					Template: "Try the 50/30/20 rule: 50% needs, 30% wants, 20% savings. With ₹{spending} going out of a ₹{balance} balance each month, moving even a tenth of your {category} spending aside would add up fast.",
				},
				{
					Name:     "invest",
					Keywords: []string{"invest"},
					Template: "Before investing, make sure an emergency fund covers a few months of your ₹{spending} monthly spending. After that, low-cost index funds or a monthly SIP are a sensible start.",
				},
				{
					Name:     "debt",
					Keywords: []string{"debt", "loan"},
					Template: "Pay the highest-interest debt first while keeping minimums on the rest. Trimming your ₹{category_amount} {category} budget can speed the payoff without touching your ₹{balance} balance.",
				},
				{
					Name:     "goal",
					Keywords: []string{"goal", "plan"},
					Template: "Let's set a target. With a balance of ₹{balance} and ₹{spending} in monthly spending, we can work out what to put toward the goal each month.",
				},
				{
					Name:     "tracking",
					Keywords: []string{"track", "expense"},
					Template: "I track every expense you record. This month you spent ₹{spending}, and {category} is the largest category at ₹{category_amount}.",
				},
				{
					Name:     "receipts",
					Keywords: []string{"receipt", "scan"},
					Template: "Upload a photo of the receipt and I'll pull out the merchant, items, tax and total for you. That keeps your expense tracking accurate without manual entry.",
				},
				{
					Name:     "greeting",
					Keywords: []string{"hello", "hi"},
					Template: "Hello! I can help with budgeting, expense tracking, savings goals, receipt scanning and financial insights. What would you like to look at?",
				},
			},
			General: []string{
				"I can help with budgeting, expense tracking, savings goals and financial insights. Could you tell me more about what you'd like to do?",
				"A good first step is a clear picture of your money: your balance is ₹{balance} and you spent ₹{spending} this month. Ask me about any part of it.",
				"Track every expense, automate your savings, and build an emergency fund before investing. Want to dig into one of those?",
			},
			DefaultSnapshot: FinancialSnapshot{
				Balance:         117650,
				MonthlySpending: 45280,
				Categories: []CategoryTotal{
					{Name: "Food", Amount: 15000},
					{Name: "Transport", Amount: 12000},
					{Name: "Entertainment", Amount: 9000},
				},
			},
		},
		Receipt: ReceiptConfig{
			StoreNames: []string{"Walmart Supercenter", "Big Bazaar", "Reliance Fresh", "Spencer's"},
			Catalog: []CatalogItem{
				{Name: "Organic Bananas", UnitPrice: "3.47"},
				{Name: "Whole Milk", UnitPrice: "4.29"},
				{Name: "Bread Loaf", UnitPrice: "2.98"},
				{Name: "Chicken Breast", UnitPrice: "12.45"},
				{Name: "Eggs (dozen)", UnitPrice: "5.10"},
				{Name: "Ground Coffee", UnitPrice: "8.75"},
				{Name: "Basmati Rice", UnitPrice: "10.99"},
				{Name: "Olive Oil", UnitPrice: "9.45"},
			},
			Tax:         "2.34",
			MinItems:    2,
			MaxItems:    5,
			MaxQuantity: 3,
		},
		Providers: ProvidersConfig{
			Banks: []ProviderEntry{
				{Name: "State Bank of India", URL: "https://www.onlinesbi.sbi/"},
				{Name: "HDFC Bank", URL: "https://netbanking.hdfcbank.com/"},
				{Name: "ICICI Bank", URL: "https://www.icicibank.com/"},
				{Name: "Axis Bank", URL: "https://www.axisbank.com/"},
				{Name: "Kotak Mahindra Bank", URL: "https://www.kotak.com/"},
				{Name: "Punjab National Bank", URL: "https://www.pnbindia.in/"},
			},
			UPI: []ProviderEntry{
				{Name: "Google Pay", URL: "https://pay.google.com/"},
				{Name: "PhonePe", URL: "https://www.phonepe.com/"},
				{Name: "Paytm", URL: "https://paytm.com/"},
				{Name: "Amazon Pay", URL: "https://www.amazon.in/amazonpay"},
				{Name: "BHIM UPI", URL: "https://www.npci.org.in/what-we-do/upi/product-overview"},
			},
			Cards: []ProviderEntry{
				{Name: "HDFC Credit Card", URL: "https://www.hdfcbank.com/personal/pay/cards/credit-cards"},
				{Name: "SBI Credit Card", URL: "https://www.sbicard.com/"},
				{Name: "ICICI Credit Card", URL: "https://www.icicibank.com/personal-banking/cards/credit-card"},
				{Name: "American Express", URL: "https://www.americanexpress.com/in/"},
			},
		},
		Tips: TipsConfig{
			Rotation: "0 0 * * *",
			Tips: []Tip{
				{Title: "Track Every Expense", Description: "Monitor all your spending to identify areas for improvement"},
				{Title: "Automate Savings", Description: "Set up automatic transfers to build wealth consistently"},
				{Title: "Emergency Fund First", Description: "Build 3-6 months of expenses before investing"},
				{Title: "Diversify Investments", Description: "Don't put all your money in one investment type"},
			},
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Absent keys keep
// their defaults; zero latencies fall back to the defaults as well.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	def := DefaultConfig()
	if cfg.Latency.ChatMS <= 0 {
		cfg.Latency.ChatMS = def.Latency.ChatMS
	}
	if cfg.Latency.ReceiptMS <= 0 {
		cfg.Latency.ReceiptMS = def.Latency.ReceiptMS
	}
	if cfg.Latency.ConnectMS <= 0 {
		cfg.Latency.ConnectMS = def.Latency.ConnectMS
	}
	if len(cfg.Chat.Categories) == 0 {
		cfg.Chat.Categories = def.Chat.Categories
	}
	if len(cfg.Chat.General) == 0 {
		cfg.Chat.General = def.Chat.General
	}
	if cfg.Tips.Rotation == "" {
		cfg.Tips.Rotation = def.Tips.Rotation
	}
	return cfg, nil
}

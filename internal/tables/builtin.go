package tables

// builtin returns the default reference tables. Prices are rubles per unit of work.
func builtin() *Tables {
	return &Tables{
		Seasonal: [12]float64{0.95, 0.96, 0.98, 1.02, 1.05, 1.08, 1.08, 1.06, 1.04, 1.01, 0.98, 0.96},
		Regions: map[string]float64{
			"moscow":           1.25,
			"saint_petersburg": 1.15,
			"central":          1.10,
			"yakutsk":          1.35,
			"krasnodar":        1.03,
			"ekaterinburg":     1.00,
			"kazan":            0.97,
			"novosibirsk":      0.95,
			"nizhny_novgorod":  0.95,
			DefaultRegion:      1.00,
		},
		RegionAliases: map[string]string{
			"москва":          "moscow",
			"msk":             "moscow",
			"санкт_петербург": "saint_petersburg",
			"спб":             "saint_petersburg",
			"spb":             "saint_petersburg",
			"st_petersburg":   "saint_petersburg",
			"petersburg":      "saint_petersburg",
			"якутск":          "yakutsk",
			"краснодар":       "krasnodar",
			"екатеринбург":    "ekaterinburg",
			"yekaterinburg":   "ekaterinburg",
			"казань":          "kazan",
			"новосибирск":     "novosibirsk",
			"нижний_новгород": "nizhny_novgorod",
		},
		DefaultRegionFactor: 1.0,
		Volatility: []VolatilityBucket{
			{Match: []string{"metal", "металл", "арматур"}, Volatility: 0.15},
			{Match: []string{"concrete", "бетон"}, Volatility: 0.12},
			{Match: []string{"electr", "электр", "кабел"}, Volatility: 0.11},
			{Match: []string{"roof", "кровл"}, Volatility: 0.10},
			{Match: []string{"plumb", "сантех", "труб"}, Volatility: 0.08},
			{Match: []string{"floor", "ламинат", "паркет"}, Volatility: 0.07},
			{Match: []string{"paint", "краск", "покраск"}, Volatility: 0.06},
			{Match: []string{"plaster", "штукатур"}, Volatility: 0.05},
		},
		DefaultVolatility:       0.07,
		HighVolatilityThreshold: 0.10,
		AnnualInflation:         0.05,
		Categories:              builtinCategories(),
		Materials: []Term{
			{Stem: "гипсокартон", Name: "гипсокартон"},
			{Stem: "гипс", Name: "гипс"},
			{Stem: "цемент", Name: "цемент"},
			{Stem: "песк", Name: "песок"},
			{Stem: "песок", Name: "песок"},
			{Stem: "бетон", Name: "бетон"},
			{Stem: "кирпич", Name: "кирпич"},
			{Stem: "плитк", Name: "плитка"},
			{Stem: "ламинат", Name: "ламинат"},
			{Stem: "линолеум", Name: "линолеум"},
			{Stem: "краск", Name: "краска"},
			{Stem: "грунт", Name: "грунт"},
			{Stem: "клей", Name: "клей"},
			{Stem: "кабел", Name: "кабель"},
			{Stem: "труб", Name: "труба"},
			{Stem: "утеплител", Name: "утеплитель"},
			{Stem: "арматур", Name: "арматура"},
			{Stem: "смес", Name: "смесь"},
			{Stem: "шпаклевк", Name: "шпаклевка"},
			{Stem: "черепиц", Name: "черепица"},
		},
		WorkVerbs: []Term{
			{Stem: "штукатур", Name: "штукатурка"},
			{Stem: "покраск", Name: "покраска"},
			{Stem: "окраск", Name: "окраска"},
			{Stem: "демонтаж", Name: "демонтаж"},
			{Stem: "монтаж", Name: "монтаж"},
			{Stem: "укладк", Name: "укладка"},
			{Stem: "устройств", Name: "устройство"},
			{Stem: "шпаклев", Name: "шпаклевка"},
			{Stem: "грунтов", Name: "грунтовка"},
			{Stem: "прокладк", Name: "прокладка"},
			{Stem: "установк", Name: "установка"},
			{Stem: "заливк", Name: "заливка"},
			{Stem: "облицовк", Name: "облицовка"},
			{Stem: "кладк", Name: "кладка"},
		},
		UnitAbbreviations: []string{
			"м", "м2", "м²", "м3", "м³", "кв.м", "куб.м", "п.м", "пм", "м.п", "мм", "см", "км", "га",
			"шт", "кг", "т", "тн", "л", "компл", "чел-ч", "маш-ч", "m2", "m3", "pcs",
			"100 п.м", "100 м²", "100 м³", "1000 м²", "1000 м³", "100 кг", "10 шт", "100 шт", "1000 шт",
		},
		Alternatives: map[string][]Alternative{
			"plastering": {
				{Name: "Premium gypsum plaster", PriceRatio: 1.0, Quality: 0.95},
				{Name: "Standard gypsum plaster", PriceRatio: 0.82, Quality: 0.88},
				{Name: "Cement-sand plaster", PriceRatio: 0.62, Quality: 0.72},
			},
			"painting": {
				{Name: "Premium interior paint", PriceRatio: 1.0, Quality: 0.95},
				{Name: "Mid-range interior paint", PriceRatio: 0.78, Quality: 0.88},
				{Name: "Economy water-based paint", PriceRatio: 0.55, Quality: 0.70},
			},
			"tiling": {
				{Name: "Imported porcelain stoneware", PriceRatio: 1.0, Quality: 0.95},
				{Name: "Domestic porcelain stoneware", PriceRatio: 0.70, Quality: 0.87},
				{Name: "Ceramic tile", PriceRatio: 0.50, Quality: 0.75},
			},
			"flooring": {
				{Name: "Engineered parquet", PriceRatio: 1.0, Quality: 0.95},
				{Name: "Class 33 laminate", PriceRatio: 0.60, Quality: 0.85},
				{Name: "Commercial linoleum", PriceRatio: 0.40, Quality: 0.70},
			},
			"electrical": {
				{Name: "Fire-resistant copper cable, premium devices", PriceRatio: 1.0, Quality: 0.95},
				{Name: "Copper cable, standard devices", PriceRatio: 0.85, Quality: 0.90},
			},
			"plumbing": {
				{Name: "Premium polypropylene fittings", PriceRatio: 1.0, Quality: 0.95},
				{Name: "Standard polypropylene fittings", PriceRatio: 0.75, Quality: 0.88},
				{Name: "Economy PVC", PriceRatio: 0.60, Quality: 0.72},
			},
			"roofing": {
				{Name: "Natural clay tile", PriceRatio: 1.0, Quality: 0.95},
				{Name: "Bitumen shingles", PriceRatio: 0.65, Quality: 0.85},
				{Name: "Metal tile", PriceRatio: 0.45, Quality: 0.78},
			},
			"concrete": {
				{Name: "Concrete B25", PriceRatio: 1.0, Quality: 0.95},
				{Name: "Concrete B22.5", PriceRatio: 0.92, Quality: 0.90},
			},
			"masonry": {
				{Name: "Ceramic brick", PriceRatio: 1.0, Quality: 0.95},
				{Name: "Aerated concrete block D500", PriceRatio: 0.60, Quality: 0.86},
				{Name: "Foam block", PriceRatio: 0.50, Quality: 0.74},
			},
			"drywall": {
				{Name: "Premium gypsum board system", PriceRatio: 1.0, Quality: 0.95},
				{Name: "Domestic gypsum board system", PriceRatio: 0.80, Quality: 0.88},
			},
		},
		BaselinePrices: map[string][]float64{
			"plastering": {220, 260, 300, 340, 350, 360, 400, 440, 480},
			"painting":   {150, 170, 190, 200, 210, 220, 240, 260},
			"tiling":     {900, 1000, 1100, 1200, 1300, 1400, 1500},
			"flooring":   {400, 500, 600, 700, 800, 900},
			"electrical": {350, 420, 480, 520, 560, 600, 680},
			"plumbing":   {800, 950, 1100, 1200, 1350, 1500},
			"demolition": {150, 180, 200, 220, 250, 280},
			"roofing":    {700, 800, 900, 1000, 1100, 1250},
			"concrete":   {5200, 5600, 6000, 6300, 6600, 7000},
			"masonry":    {1500, 1700, 1900, 2100, 2300},
			"drywall":    {450, 500, 550, 600, 650, 700},
		},
		ProjectTemplates: map[string][]string{
			"apartment": {"plastering", "painting", "flooring", "electrical", "plumbing", "tiling"},
			"house":     {"concrete", "masonry", "roofing", "electrical", "plumbing", "plastering"},
			"office":    {"drywall", "painting", "flooring", "electrical"},
			"bathroom":  {"tiling", "plumbing", "electrical"},
		},
	}
}

func builtinCategories() []Category {
	return []Category{
		{
			Key:      "plastering",
			Name:     "Штукатурные работы",
			Keywords: []string{"штукатур", "шпаклев", "шпатлев", "гипсов", "выравнивание стен", "plaster"},
			Subcategories: []Subcategory{
				{Key: "walls", Keywords: []string{"стен", "откос", "wall"}},
				{Key: "ceilings", Keywords: []string{"потол", "ceiling"}},
				{Key: "facade", Keywords: []string{"фасад", "facade"}},
			},
			Normatives: []Normative{
				{Code: "ФЕР15-02-016-01", Name: "Штукатурка поверхностей внутри здания по камню и бетону", Subcategory: "walls"},
				{Code: "ФЕР15-02-016-03", Name: "Штукатурка потолков", Subcategory: "ceilings"},
				{Code: "ФЕР15-02-001-01", Name: "Штукатурка фасадов", Subcategory: "facade"},
				{Code: "ФЕР15-04-030-01", Name: "Шпаклевка стен", Subcategory: "walls"},
			},
		},
		{
			Key:      "painting",
			Name:     "Малярные работы",
			Keywords: []string{"покраск", "окраск", "окрашив", "краск", "эмал", "грунтовк", "paint"},
			Subcategories: []Subcategory{
				{Key: "walls", Keywords: []string{"стен", "wall"}},
				{Key: "ceilings", Keywords: []string{"потол", "ceiling"}},
				{Key: "woodwork", Keywords: []string{"дерев", "окон", "двер", "wood"}},
			},
			Normatives: []Normative{
				{Code: "ФЕР15-04-005-01", Name: "Окраска стен водоэмульсионными составами", Subcategory: "walls"},
				{Code: "ФЕР15-04-005-02", Name: "Окраска потолков водоэмульсионными составами", Subcategory: "ceilings"},
				{Code: "ФЕР15-04-024-01", Name: "Окраска деревянных поверхностей", Subcategory: "woodwork"},
			},
		},
		{
			Key:      "tiling",
			Name:     "Облицовочные работы",
			Keywords: []string{"плитк", "кафел", "керамогранит", "мозаик", "облицовк", "tile"},
			Subcategories: []Subcategory{
				{Key: "floors", Keywords: []string{"пол", "floor"}},
				{Key: "walls", Keywords: []string{"стен", "фартук", "wall"}},
			},
			Normatives: []Normative{
				{Code: "ФЕР11-01-027-01", Name: "Устройство покрытий из керамических плиток", Subcategory: "floors"},
				{Code: "ФЕР15-01-019-01", Name: "Облицовка стен керамической плиткой", Subcategory: "walls"},
			},
		},
		{
			Key:      "flooring",
			Name:     "Устройство полов",
			Keywords: []string{"ламинат", "линолеум", "паркет", "стяжк", "наливн", "напольн", "floor"},
			Subcategories: []Subcategory{
				{Key: "screed", Keywords: []string{"стяжк", "наливн", "screed"}},
				{Key: "covering", Keywords: []string{"ламинат", "линолеум", "паркет", "laminate"}},
			},
			Normatives: []Normative{
				{Code: "ФЕР11-01-011-01", Name: "Устройство стяжек цементных", Subcategory: "screed"},
				{Code: "ФЕР11-01-034-04", Name: "Устройство покрытий из ламината", Subcategory: "covering"},
				{Code: "ФЕР11-01-036-01", Name: "Устройство покрытий из линолеума", Subcategory: "covering"},
			},
		},
		{
			Key:      "electrical",
			Name:     "Электромонтажные работы",
			Keywords: []string{"электр", "провод", "кабел", "розетк", "выключател", "светильник", "электрощит", "electric"},
			Subcategories: []Subcategory{
				{Key: "wiring", Keywords: []string{"провод", "кабел", "wiring"}},
				{Key: "devices", Keywords: []string{"розетк", "выключател", "светильник", "socket"}},
			},
			Normatives: []Normative{
				{Code: "ФЕРм08-02-409-01", Name: "Прокладка кабеля в трубах", Subcategory: "wiring"},
				{Code: "ФЕРм08-03-591-01", Name: "Установка розеток и выключателей", Subcategory: "devices"},
			},
		},
		{
			Key:      "plumbing",
			Name:     "Сантехнические работы",
			Keywords: []string{"сантехн", "труб", "смесител", "унитаз", "ванн", "раковин", "канализац", "водоснабж", "plumb"},
			Subcategories: []Subcategory{
				{Key: "pipes", Keywords: []string{"труб", "канализац", "водоснабж", "pipe"}},
				{Key: "fixtures", Keywords: []string{"смесител", "унитаз", "ванн", "раковин"}},
			},
			Normatives: []Normative{
				{Code: "ФЕР16-02-005-01", Name: "Прокладка трубопроводов водоснабжения", Subcategory: "pipes"},
				{Code: "ФЕР17-01-001-01", Name: "Установка ванн", Subcategory: "fixtures"},
				{Code: "ФЕР17-01-003-01", Name: "Установка унитазов", Subcategory: "fixtures"},
			},
		},
		{
			Key:      "demolition",
			Name:     "Демонтажные работы",
			Keywords: []string{"демонтаж", "снос", "разборк", "вывоз мусор", "demolit"},
			Subcategories: []Subcategory{
				{Key: "finishes", Keywords: []string{"покрыт", "плитк", "штукатур", "обо"}},
				{Key: "structures", Keywords: []string{"перегород", "стен", "кладк"}},
			},
			Normatives: []Normative{
				{Code: "ФЕР46-04-001-01", Name: "Разборка кирпичных стен", Subcategory: "structures"},
				{Code: "ФЕР46-04-012-01", Name: "Отбивка штукатурки", Subcategory: "finishes"},
			},
		},
		{
			Key:      "roofing",
			Name:     "Кровельные работы",
			Keywords: []string{"кровл", "крыш", "черепиц", "водосток", "roof"},
			Subcategories: []Subcategory{
				{Key: "covering", Keywords: []string{"черепиц", "профнастил", "покрыт"}},
				{Key: "drainage", Keywords: []string{"водосток", "желоб"}},
			},
			Normatives: []Normative{
				{Code: "ФЕР12-01-007-01", Name: "Устройство кровель из металлочерепицы", Subcategory: "covering"},
				{Code: "ФЕР12-01-010-01", Name: "Устройство водосточных систем", Subcategory: "drainage"},
			},
		},
		{
			Key:      "concrete",
			Name:     "Бетонные работы",
			Keywords: []string{"бетон", "фундамент", "армирован", "опалубк", "concrete"},
			Subcategories: []Subcategory{
				{Key: "foundations", Keywords: []string{"фундамент", "foundation"}},
				{Key: "slabs", Keywords: []string{"плит", "перекрыт", "slab"}},
			},
			Normatives: []Normative{
				{Code: "ФЕР06-01-001-01", Name: "Устройство бетонной подготовки", Subcategory: "foundations"},
				{Code: "ФЕР06-01-041-01", Name: "Устройство перекрытий безбалочных", Subcategory: "slabs"},
			},
		},
		{
			Key:      "masonry",
			Name:     "Каменные работы",
			Keywords: []string{"кладк", "кирпич", "газобетон", "пеноблок", "перегородк", "masonry"},
			Subcategories: []Subcategory{
				{Key: "walls", Keywords: []string{"стен", "wall"}},
				{Key: "partitions", Keywords: []string{"перегородк", "partition"}},
			},
			Normatives: []Normative{
				{Code: "ФЕР08-02-001-01", Name: "Кладка стен кирпичных наружных", Subcategory: "walls"},
				{Code: "ФЕР08-04-001-01", Name: "Кладка перегородок из газобетонных блоков", Subcategory: "partitions"},
			},
		},
		{
			Key:      "drywall",
			Name:     "Монтаж гипсокартона",
			Keywords: []string{"гипсокартон", "гкл", "каркас", "профил", "drywall"},
			Subcategories: []Subcategory{
				{Key: "partitions", Keywords: []string{"перегородк", "partition"}},
				{Key: "ceilings", Keywords: []string{"потол", "ceiling"}},
			},
			Normatives: []Normative{
				{Code: "ФЕР10-05-001-01", Name: "Устройство перегородок из гипсокартонных листов", Subcategory: "partitions"},
				{Code: "ФЕР15-01-047-15", Name: "Устройство потолков из гипсокартона", Subcategory: "ceilings"},
			},
		},
	}
}

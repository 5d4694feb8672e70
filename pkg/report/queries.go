package report

const ordersQuery = `
SELECT
    COUNT(DISTINCT OrderID) AS Orders,
    COUNT(DISTINCT CASE WHEN DeliveryDelayDays <> 0 THEN OrderID END) AS DelayedOrders
FROM {{ fact_table }}`

const revenueQuery = `
SELECT SUM(distinct_orders.PaymentValue) AS Revenue
FROM (
    SELECT DISTINCT OrderID, PaymentValue
    FROM {{ fact_table }}
) AS distinct_orders`

const paymentsQuery = `
SELECT PaymentInstallments, PaymentType
FROM {{ dim_payments }}`

type section struct {
	title    string
	template string
}

var sections = []section{
	{
		title: "Revenue by season",
		template: `
SELECT dd.Season AS Season, SUM(distinct_orders.PaymentValue) AS Revenue
FROM (
    SELECT DISTINCT OrderID, OrderDateKey, PaymentValue
    FROM {{ fact_table }}
) AS distinct_orders
JOIN {{ dim_date }} dd ON distinct_orders.OrderDateKey = dd.DateKey
GROUP BY dd.Season
ORDER BY Revenue DESC`,
	},
	{
		title: "Revenue by month",
		template: `
SELECT dd.Season AS Season, dd.MonthName AS MonthName, SUM(distinct_orders.PaymentValue) AS Revenue
FROM (
    SELECT DISTINCT OrderID, OrderDateKey, PaymentValue
    FROM {{ fact_table }}
) AS distinct_orders
JOIN {{ dim_date }} dd ON distinct_orders.OrderDateKey = dd.DateKey
GROUP BY dd.Season, dd.Month, dd.MonthName
ORDER BY Revenue DESC`,
	},
	{
		title: "Orders by hour",
		template: `
SELECT dt.Hour AS Hour, dt.TimeOfDay AS TimeOfDay, COUNT(DISTINCT f.OrderID) AS Orders
FROM {{ fact_table }} f
JOIN {{ dim_time }} dt ON f.OrderTimeKey = dt.TimeKey
GROUP BY dt.Hour, dt.TimeOfDay
ORDER BY Orders DESC`,
	},
	{
		title: "Top product categories",
		template: `
SELECT p.ProductCategory AS Category, COUNT(DISTINCT f.OrderID) AS Orders, SUM(f.Quantity) AS Items
FROM {{ fact_table }} f
JOIN {{ dim_products }} p ON f.ProductID = p.ProductID
GROUP BY p.ProductCategory
ORDER BY Orders DESC
LIMIT {{ limit }}`,
	},
	{
		title: "Shipping days by seller state",
		template: `
SELECT s.SellerState AS SellerState, AVG(f.ShippingDays) AS AverageShippingDays, COUNT(DISTINCT f.OrderID) AS Orders
FROM {{ fact_table }} f
JOIN {{ dim_sellers }} s ON f.SellerID = s.SellerID
WHERE f.ShippingDays IS NOT NULL
GROUP BY s.SellerState
ORDER BY AverageShippingDays DESC`,
	},
}

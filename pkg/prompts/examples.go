package prompts

// SQLExample is one worked question/SQL pair. Only the question text is
// embedded for retrieval; the SQL rides along as the payload.
type SQLExample struct {
	ID       string
	Question string
	Tables   []string
	SQL      string
}

var SQLExamples = []SQLExample{
	{
		ID:       "ex1",
		Question: "Who are the current owners of plot 30 road 14",
		Tables:   []string{"properties", "current_owners", "persons", "property_addresses"},
		SQL: `SELECT T1.file_no, T2.plot_no, T2.road_no,
       T4.name AS current_owner_name, T3.buyer_portion
FROM properties AS T1
JOIN property_addresses AS T2 ON T1.id = T2.property_id
JOIN current_owners AS T3 ON T1.id = T3.property_id
JOIN persons AS T4 ON T3.buyer_id = T4.id
WHERE T2.plot_no = '30' AND T2.road_no = '14'
LIMIT 50;`,
	},
	{
		ID:       "ex2",
		Question: "Who currently owns file number 3447?",
		Tables:   []string{"properties", "current_owners", "persons"},
		SQL: `SELECT T2.name, T1.buyer_portion
FROM current_owners AS T1
JOIN persons AS T2 ON T1.buyer_id = T2.id
JOIN properties AS T3 ON T1.property_id = T3.id
WHERE T3.file_no = '3447'
LIMIT 50;`,
	},
	{
		ID:       "ex3",
		Question: "Show me all properties owned by Davinder Sodhi",
		Tables:   []string{"properties", "current_owners", "persons", "property_addresses"},
		SQL: `SELECT
       T2.plot_no, T2.road_no,
       T4.name AS owner_name, T3.buyer_portion
FROM properties AS T1
JOIN property_addresses AS T2 ON T1.id = T2.property_id
JOIN current_owners AS T3 ON T1.id = T3.property_id
JOIN persons AS T4 ON T3.buyer_id = T4.id
WHERE T4.name ILIKE '%Davinder Sodhi%'
LIMIT 50;`,
	},
	{
		ID:       "ex4",
		Question: "What is the complete ownership history of plot 30 road 14?",
		Tables:   []string{"properties", "ownership_records", "persons", "sale_deeds", "ownership_sellers", "property_addresses"},
		SQL: `SELECT T1.file_no, T2.plot_no, T2.road_no,
       T3.transfer_type, T3.buyer_portion,
       T4.name AS buyer_name,
       T6.sale_deed_no, T6.signing_date,
       T7.name AS seller_name
FROM properties AS T1
JOIN property_addresses AS T2 ON T1.id = T2.property_id
LEFT JOIN ownership_records AS T3 ON T1.id = T3.property_id
LEFT JOIN persons AS T4 ON T3.buyer_id = T4.id
LEFT JOIN sale_deeds AS T6 ON T3.sale_deed_id = T6.id
LEFT JOIN ownership_sellers AS T5 ON T3.id = T5.ownership_id
LEFT JOIN persons AS T7 ON T5.person_id = T7.id
WHERE T2.plot_no = '30' AND T2.road_no = '14'
LIMIT 50;`,
	},
	{
		ID:       "ex5",
		Question: "List all transactions involving Davinder Sodh",
		Tables:   []string{"properties", "ownership_records", "persons", "sale_deeds", "ownership_sellers"},
		SQL: `SELECT T1.file_no, T3.name AS buyer_name, T5.name AS seller_name,
       (T4.signing_date->>0) AS signing_date, T1.file_name, T2.buyer_portion, T2.notes
FROM properties AS T1
JOIN ownership_records AS T2 ON T1.id = T2.property_id
JOIN persons AS T3 ON T2.buyer_id = T3.id
JOIN sale_deeds AS T4 ON T2.sale_deed_id = T4.id
JOIN ownership_sellers AS T6 ON T6.ownership_id = T2.id
JOIN persons AS T5 ON T5.id = T6.person_id
WHERE T3.name ILIKE '%Davinder Sodh%' OR T5.name ILIKE '%Davinder Sodh%'
LIMIT 50;`,
	},
	{
		ID:       "ex6",
		Question: "How many transactions happened before 2005?",
		Tables:   []string{"ownership_records", "sale_deeds"},
		SQL: `SELECT COUNT(*) AS total_count
FROM ownership_records AS T1
JOIN sale_deeds AS T2 ON T1.sale_deed_id = T2.id
WHERE (T2.signing_date->>0) IS NOT NULL
  AND (T2.signing_date->>0) != ''
  AND to_date((T2.signing_date->>0), 'DD/MM/YYYY') < '2005-01-01';`,
	},
	{
		ID:       "ex7",
		Question: "How many properties are there",
		Tables:   []string{"properties"},
		SQL: `SELECT COUNT(*) AS total_count
FROM properties;`,
	},
	{
		ID:       "ex8",
		Question: "Show me contact details for Davinder Sodhi",
		Tables:   []string{"persons"},
		SQL: `SELECT name, phone_number, email, address, dob, pan, aadhaar, occupation
FROM persons
WHERE name ILIKE '%Davinder Sodhi%'
LIMIT 50;`,
	},
	{
		ID:       "ex9",
		Question: "What is the plot size for plot 30 road 14",
		Tables:   []string{"properties", "property_addresses"},
		SQL: `SELECT T1.file_no, T2.plot_no, T2.road_no, T2.initial_plot_size
FROM properties AS T1
JOIN property_addresses AS T2 ON T1.id = T2.property_id
WHERE T2.plot_no = '30' AND T2.road_no = '14'
LIMIT 50;`,
	},
	{
		ID:       "ex10",
		Question: "What properties are in Punjabi Bagh West?",
		Tables:   []string{"properties"},
		SQL: `SELECT file_no, pra
FROM properties
WHERE pra ILIKE '%Punjabi Bagh West%'
LIMIT 50;`,
	},
	{
		ID:       "ex11",
		Question: "Show construction details for plot 30 road 14",
		Tables:   []string{"properties", "construction_details", "property_addresses"},
		SQL: `SELECT T1.file_no, T2.plot_no, T2.road_no, T2.street_name, T2.initial_plot_size,
       T3.coverage_built_up_area, T3.circle_rate_colony, T3.land_price_per_sqm,
       T3.construction_price_per_sqm, T3.total_covered_area
FROM properties AS T1
JOIN property_addresses AS T2 ON T1.id = T2.property_id
JOIN construction_details AS T3 ON T1.id = T3.property_id
WHERE T2.plot_no = '30' AND T2.road_no = '14'
LIMIT 50;`,
	},
	{
		ID:       "ex12",
		Question: "What are the legal details for plot 30 road 14",
		Tables:   []string{"properties", "legal_details", "property_addresses"},
		SQL: `SELECT T1.file_no, T2.plot_no, T2.road_no, T2.street_name,
       T3.registrar_office, T3.court_cases
FROM properties AS T1
JOIN property_addresses AS T2 ON T1.id = T2.property_id
JOIN legal_details AS T3 ON T1.id = T3.property_id
WHERE T2.plot_no = '30' AND T2.road_no = '14'
LIMIT 50;`,
	},
	{
		ID:       "ex13",
		Question: "What transactions happened in 2018?",
		Tables:   []string{"properties", "ownership_records", "sale_deeds", "persons", "ownership_sellers"},
		SQL: `SELECT T1.file_no, T1.pra, T3.name AS buyer_name, T5.name AS seller_name, T2.buyer_portion,
       (T4.signing_date->>0) AS signing_date
FROM properties AS T1
JOIN ownership_records AS T2 ON T1.id = T2.property_id
JOIN persons AS T3 ON T2.buyer_id = T3.id
JOIN sale_deeds AS T4 ON T2.sale_deed_id = T4.id
JOIN ownership_sellers AS T6 ON T6.ownership_id = T2.id
JOIN persons AS T5 ON T5.id = T6.person_id
WHERE (T4.signing_date->>0) IS NOT NULL
  AND (T4.signing_date->>0) != ''
  AND EXTRACT(YEAR FROM to_date((T4.signing_date->>0), 'DD/MM/YYYY')) = 2018
LIMIT 50;`,
	},
	{
		ID:       "ex14",
		Question: "Find society members for the plot 30 road 14",
		Tables:   []string{"share_certificates", "persons", "properties", "property_addresses"},
		SQL: `SELECT T1.file_no, T2.plot_no, T2.road_no, T2.street_name,
       T3.certificate_number, T3.date_of_transfer, T3.date_of_ending, T3.notes,
       T4.name AS member_name
FROM properties AS T1
JOIN property_addresses AS T2 ON T1.id = T2.property_id
JOIN share_certificates AS T3 ON T1.id = T3.property_id
JOIN persons AS T4 ON T3.member_id = T4.id
WHERE T2.plot_no = '30' AND T2.road_no = '14'
LIMIT 50;`,
	},
	{
		ID:       "ex15",
		Question: "Show club membership details for the plot 30 road 14",
		Tables:   []string{"club_memberships", "persons", "properties", "property_addresses"},
		SQL: `SELECT T1.file_no, T2.plot_no, T2.road_no, T2.street_name,
       T3.membership_number, T3.allocation_date, T3.membership_end_date,
       T4.name AS member_name
FROM properties AS T1
JOIN property_addresses AS T2 ON T1.id = T2.property_id
JOIN club_memberships AS T3 ON T1.id = T3.property_id
JOIN persons AS T4 ON T3.member_id = T4.id
WHERE T2.plot_no = '30' AND T2.road_no = '14'
LIMIT 50;`,
	},
	{
		ID:       "ex16",
		Question: "How many properties does each person own?",
		Tables:   []string{"current_owners", "persons"},
		SQL: `SELECT T2.name, COUNT(*) AS property_count
FROM current_owners AS T1
JOIN persons AS T2 ON T1.buyer_id = T2.id
GROUP BY T2.name
ORDER BY property_count DESC
LIMIT 50;`,
	},
	{
		ID:       "ex17",
		Question: "What are the top 10 plots according to their size?",
		Tables:   []string{"properties", "property_addresses"},
		SQL: `SELECT
       T1.file_no,
       T2.plot_no,
       T2.road_no,
       T2.initial_plot_size
FROM properties AS T1
JOIN property_addresses AS T2
  ON T1.id = T2.property_id
WHERE NULLIF(TRIM(T2.initial_plot_size), '') IS NOT NULL
ORDER BY NULLIF(TRIM(T2.initial_plot_size), '')::DECIMAL DESC
LIMIT 10;`,
	},
	{
		ID:       "ex18",
		Question: "Give me all the properties where owner's last name is Kohli",
		Tables:   []string{"properties", "property_addresses", "current_owners", "persons"},
		SQL: `SELECT
       T1.file_no, T2.plot_no, T2.road_no, T2.street_name, T2.initial_plot_size,
       T4.name AS owner_name, T3.buyer_portion
FROM properties AS T1
JOIN property_addresses AS T2 ON T1.id = T2.property_id
JOIN current_owners AS T3 ON T1.id = T3.property_id
JOIN persons AS T4 ON T3.buyer_id = T4.id
WHERE T4.name ILIKE '%Kohli%'
ORDER BY T2.plot_no, T2.road_no
LIMIT 50;`,
	},
	{
		ID:       "ex19",
		Question: "Give me all the owners who have more than one plot",
		Tables:   []string{"current_owners", "persons", "properties", "property_addresses"},
		SQL: `SELECT T3.file_no, T2.name AS owner_name,
       COUNT(DISTINCT T1.property_id) AS total_properties,
       STRING_AGG(DISTINCT T4.plot_no || '|' || T4.road_no || '|' || T4.street_name, ', ') AS properties_owned
FROM current_owners AS T1
JOIN persons AS T2 ON T1.buyer_id = T2.id
JOIN properties AS T3 ON T1.property_id = T3.id
JOIN property_addresses AS T4 ON T3.id = T4.property_id
GROUP BY T2.id, T2.name, T2.phone_number, T2.email, T2.address
HAVING COUNT(DISTINCT T1.property_id) > 1
ORDER BY total_properties DESC
LIMIT 50;`,
	},
	{
		ID:       "ex20",
		Question: "Who were the previous owners of plot 30 on road 14?",
		Tables:   []string{"properties", "property_addresses", "ownership_records", "persons", "sale_deeds", "ownership_sellers"},
		SQL: `SELECT T1.file_no, T2.plot_no, T2.road_no, T3.transfer_type, T3.buyer_portion, T4.name AS buyer_name, T6.sale_deed_no, T6.signing_date, T7.name AS seller_name
FROM properties AS T1
JOIN property_addresses AS T2 ON T1.id = T2.property_id
LEFT JOIN ownership_records AS T3 ON T1.id = T3.property_id
LEFT JOIN persons AS T4 ON T3.buyer_id = T4.id
LEFT JOIN sale_deeds AS T6 ON T3.sale_deed_id = T6.id
LEFT JOIN ownership_sellers AS T5 ON T3.id = T5.ownership_id
LEFT JOIN persons AS T7 ON T5.person_id = T7.id
WHERE T2.plot_no = '30' AND T2.road_no = '14' LIMIT 50;`,
	},
}

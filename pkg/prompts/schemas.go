package prompts

import (
	"fmt"
	"strings"
)

// TableSchema is one table's natural-language documentation. The
// descriptions double as retrieval documents and as schema context in
// the SQL-generation prompt.
type TableSchema struct {
	Table       string
	Description string
}

// RenderSchemas joins every table description into the schema block of
// the SQL-generation prompt.
func RenderSchemas() string {
	blocks := make([]string, 0, len(TableSchemas))
	for _, s := range TableSchemas {
		blocks = append(blocks, fmt.Sprintf("Table %s:\n%s", s.Table, s.Description))
	}
	return strings.Join(blocks, "\n\n")
}

var TableSchemas = []TableSchema{
	{
		Table: "properties",
		Description: `Core property table containing high-level property information such as pra, file_no, file_name.
Columns:
- id (uuid string, PK)
- pra (text, nullable): Property Reference Address/identifier (e.g. '47|77|Punjabi Bagh West') -> combination of plot_no, road_no and street_name
- file_no (text, nullable): Internal file tracking number -> the initial integer from the file_name
- file_name (text, nullable): Name of the property file -> the pdf name from which a single property's data was extracted
- file_link (text, nullable): URL/path to property documentation PDF
- qc_status (enum, required): Quality control status - values: 'raw-json', 'manual-check-1', 'images-mapped', 'manual-check-2', 'client-check'
Relationships:
- One Property has one PropertyAddress (address).
- One Property has many OwnershipRecords.
- One Property has one CurrentOwner.
- One Property has one ConstructionDetails.
- One Property has one LegalDetails.
- One Property has many ShareCertificates.
- One Property has many ClubMemberships.
- One Property has many MiscDocuments.`,
	},
	{
		Table: "property_addresses",
		Description: `Details like plot number, road number, street name, plot size.
Columns:
- id (uuid string, PK)
- property_id (uuid string, FK, required): References properties.id
- plot_no (text, nullable): Plot number identifier
- road_no (text, nullable): Road number where property is located
- street_name (text, nullable): Street name
- initial_plot_size (text, nullable): Original size of the plot
- source_page (json list): Page numbers from source documents where this info was found
- flag (enum): Status flag - 'Pending' or 'Completed'
Relationships:
- Many-to-one: property (back to properties table)`,
	},
	{
		Table: "persons",
		Description: `Individual persons involved in property transactions (buyers, sellers, members) and their contact details like address, phone number, email, pan number, aadhaar number, occupation (what kind of work they do).
Columns:
- id (uuid string, PK)
- pra (text, nullable): Person reference address/identifier
- name (text, required): Full name of the person
- dob (text, nullable): Date of birth as string
- family_members (json list): List of family member names
- address (text, nullable): Residential address
- phone_number (text, nullable): Contact phone number
- email (text, nullable): Email address
- pan (text, nullable): PAN card number
- aadhaar (text, nullable): Aadhaar card number
- img_link (text, nullable): URL to person's image/photo
- occupation (text, nullable): Professional occupation
- source_page (json list): Source document page references
- person_source (text, required): Origin/source of person record
- flag (enum): Status flag - 'Pending' or 'Completed'
Relationships:
- One Person can buy many OwnershipRecords (ownerships_bought).
- One Person can be linked to many SaleDeeds.
- One Person can have many ShareCertificates (member).
- One Person can have many ClubMemberships (member).
- Many-to-many: sold_in_ownerships (as seller via ownership_sellers), sold_in_current_owner (via current_owner_sellers)`,
	},
	{
		Table: "ownership_records",
		Description: `Historical ownership records for properties: buyer portion, transfer type like sale, gift, inheritance etc., notes about the transaction.
Columns:
- id (uuid string, PK)
- property_id (uuid string, FK, required): References properties.id
- buyer_id (uuid string, FK, nullable): References persons.id for the buyer
- sale_deed_id (uuid string, FK, nullable): References sale_deeds.id
- transfer_type (text, nullable): Type of ownership transfer (e.g., sale, gift, inheritance)
- buyer_portion (json list, nullable): List describing portion/share acquired by buyer
- total_stamp_duty_paid (text, nullable): Total stamp duty amount paid
- notes (text, nullable): Additional notes about the transaction
- source_page (json list): Source document page references
- flag (enum): Status flag - 'Pending' or 'Completed'
Relationships:
- Many-to-one: property, buyer (Person), sale_deed
- Many-to-many: sellers (Person via ownership_sellers association table)`,
	},
	{
		Table: "ownership_sellers",
		Description: `Association table linking ownership records to multiple sellers.
Columns:
- ownership_id (uuid string, FK, PK): References ownership_records.id
- person_id (uuid string, FK, PK): References persons.id
Purpose: Handles many-to-many relationship between ownership_records and persons (as sellers)`,
	},
	{
		Table: "current_owners",
		Description: `Current/latest ownership status for each property, basically the current owner of each individual property.
Columns:
- id (uuid string, PK)
- property_id (uuid string, FK, required): References properties.id
- buyer_id (uuid string, FK, nullable): References persons.id for current owner
- buyer_portion (text, nullable): Portion/share owned by current buyer
- source_page (json list): Source document page references
- flag (enum): Status flag - 'Pending' or 'Completed'
Relationships:
- Many-to-one: property, buyer (Person)
- Many-to-many: sellers (Person via current_owner_sellers association table)`,
	},
	{
		Table: "current_owner_sellers",
		Description: `Association table linking current owners to multiple sellers.
Columns:
- current_owner_id (uuid string, FK, PK): References current_owners.id
- person_id (uuid string, FK, PK): References persons.id
Purpose: Handles many-to-many relationship between current_owners and persons (as sellers)`,
	},
	{
		Table: "sale_deeds",
		Description: `Sale deed documents with registration details: sale deed number, book number, page number, signing date, registry status, owners portion sold, total property portion sold.
Columns:
- id (uuid string, PK)
- person_id (uuid string, FK, nullable): Primary person associated with deed, references persons.id
- property_id (uuid string, FK, nullable): References properties.id
- sale_deed_no (json list): List of sale deed numbers
- book_no (json list): List of registration book numbers
- page_no (json list): List of page numbers in registration books
- signing_date (json list): List of signing dates (string format, DD/MM/YYYY)
- registry_status (text, nullable): Status of registry (e.g., registered, pending)
- owners_portion_sold (json list): List describing portions sold by each owner
- total_property_portion_sold (json list): List of total property portions sold
- source_page (json list): Source document page references
- pdf_link (text, nullable): URL to sale deed PDF document
- flag (enum): Status flag - 'Pending' or 'Completed'
Relationships:
- Many-to-one: person, property (optional)
- One-to-one: ownership_record (back reference)
Note: Many fields are JSON lists to handle multiple deed entries in one record`,
	},
	{
		Table: "construction_details",
		Description: `Construction and built-up area details for properties.
Columns:
- id (uuid string, PK)
- property_id (uuid string, FK, required): References properties.id
- coverage_built_up_area (text, default ''): Built-up area coverage
- circle_rate_colony (text, default ''): Government circle rate for the colony
- land_price_per_sqm (text, default ''): Land price per square meter
- construction_price_per_sqm (text, default ''): Construction cost per square meter
- total_covered_area (text, default ''): Total covered area of construction
- source_page (json list): Source document page references
- pdf_link (text, nullable): URL to construction document PDF
- flag (enum): Status flag - 'Pending' or 'Completed'
Relationships:
- One-to-one: property (back to properties table)`,
	},
	{
		Table: "legal_details",
		Description: `Legal information and court cases related to properties.
Columns:
- id (uuid string, PK)
- property_id (uuid string, FK, required): References properties.id
- registrar_office (text, default ''): Name of the registrar office
- court_cases (json list): List of court case details/numbers
- source_page (json list): Source document page references
- pdf_link (text, nullable): URL to legal document PDF
- flag (enum): Status flag - 'Pending' or 'Completed'
Relationships:
- One-to-one: property (back to properties table)`,
	},
	{
		Table: "share_certificates",
		Description: `Cooperative society or company share certificates or society membership linked to properties.
Columns:
- id (uuid string, PK)
- certificate_number (text, nullable): Share certificate number
- property_id (uuid string, FK, required): References properties.id
- member_id (uuid string, FK, nullable): References persons.id for shareholder
- date_of_transfer (text, nullable): Date when shares were transferred
- date_of_ending (text, nullable): Date when certificate validity ended
- notes (text, nullable): Additional notes about the certificate
- source_page (json list): Source document page references
- pdf_link (text, nullable): URL to certificate PDF
- flag (enum): Status flag - 'Pending' or 'Completed'
Relationships:
- Many-to-one: property, member (Person)`,
	},
	{
		Table: "club_memberships",
		Description: `Club memberships associated with properties.
Columns:
- id (uuid string, PK)
- member_id (uuid string, FK, required): References persons.id
- property_id (uuid string, FK, required): References properties.id
- allocation_date (text, nullable): Date membership was allocated
- membership_end_date (text, nullable): Expiry date of membership
- membership_number (text, nullable): Unique membership identifier
- source_page (json list): Source document page references
- pdf_link (text, nullable): URL to membership document PDF
- flag (enum): Status flag - 'Pending' or 'Completed'
Relationships:
- Many-to-one: member (Person), property`,
	},
	{
		Table: "misc_documents",
		Description: `Miscellaneous documents related to properties.
Columns:
- id (uuid string, PK)
- property_id (uuid string, FK): References properties.id
- pra (text, required): Property reference address/identifier
Relationships:
- Many-to-one: property
Purpose: Stores references to additional property documents not covered by other tables`,
	},
}

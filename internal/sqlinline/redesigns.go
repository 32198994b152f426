package sqlinline

const QInsertRedesign = `--sql 636a0a3e-d3c7-4424-b530-927a4bfa37f5
insert into redesigns (
    id, account_id, original_url, redesigned_url, original_key, redesigned_key,
    catalog, styles, climate_zone, density, is_pinned, created_at
)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text,
        $7::jsonb, $8::text[], $9::text, $10::text, $11::boolean, $12::timestamptz);
`

const QSelectRedesign = `--sql ee06b6b8-bdb6-4a2d-b478-ca1aa9dfe5be
select id::text, account_id, original_url, redesigned_url, original_key, redesigned_key,
       catalog, styles, climate_zone, density, is_pinned, created_at
from redesigns
where id = $1::uuid and account_id = $2::text
limit 1;
`

const QListRedesigns = `--sql b8b293c8-4ec2-4193-9812-14f4d6edc00a
select id::text, account_id, original_url, redesigned_url, original_key, redesigned_key,
       catalog, styles, climate_zone, density, is_pinned, created_at
from redesigns
where account_id = $1::text
order by is_pinned desc, created_at desc
limit $2::int offset $3::int;
`

const QUpdateRedesignPin = `--sql e76d49a8-4af0-4a7f-aaca-f8744b7a011d
update redesigns
set is_pinned = $3::boolean
where id = $1::uuid and account_id = $2::text
returning id::text, account_id, original_url, redesigned_url, original_key, redesigned_key,
          catalog, styles, climate_zone, density, is_pinned, created_at;
`

const QDeleteRedesign = `--sql b517a68b-39c3-406f-93c1-f22b110ea478
delete from redesigns
where id = $1::uuid and account_id = $2::text;
`

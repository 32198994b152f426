package sqlinline

const QSelectProviderKey = `--sql 3c9b7e14-52a0-4d8f-b6e1-0f4a2d7c9e35
select api_key
from provider_credentials
where provider = $1::text;
`

// QUpsertProviderKey merges the metadata so earlier rotations keep their notes.
const QUpsertProviderKey = `--sql c71e0a4b-9d26-4f3e-8a5c-b2e6f1d0a748
insert into provider_credentials (provider, api_key, metadata, rotated_at)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now())
on conflict (provider) do update set
    api_key = excluded.api_key,
    metadata = provider_credentials.metadata || excluded.metadata,
    rotated_at = now();
`
